package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Codeはログとステータスコードのマッピングに使い、
// Messageのみがクライアントに返る（内部詳細を漏らさない）。
type APIError struct {
	Code     string // エラーコード
	Message  string // クライアントに返すメッセージ
	Category string // カテゴリ: auth, validation, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated      = "UNAUTHENTICATED"
	ErrCodeInvalidCredential    = "INVALID_CREDENTIAL"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeReferentialViolation = "REFERENTIAL_VIOLATION"
	ErrCodeDuplicateKey         = "DUPLICATE_KEY"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeUpstreamFailure      = "UPSTREAM_FAILURE"
)

// NewUnauthenticatedError はクレデンシャル欠落エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Missing ID token",
		Category: "auth",
	}
}

// NewInvalidCredentialError はクレデンシャル検証失敗エラーを生成する。
// 期限切れ・不正形式・失効のいずれもクライアントには同じメッセージを返す。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "Invalid or expired ID token",
		Category: "auth",
	}
}

// NewForbiddenError はロール不足エラーを生成する。
// メッセージには要求ロールを含める（認証済みクライアント向けのため漏洩にならない）。
func NewForbiddenError(required Role) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("Forbidden: role %s required", required),
		Category: "auth",
	}
}

// NewMissingRegionError は存在しない地域コードへの参照エラーを生成する。
func NewMissingRegionError(regionCode string) *APIError {
	return &APIError{
		Code:     ErrCodeReferentialViolation,
		Message:  fmt.Sprintf("region %s does not exist", regionCode),
		Category: "validation",
	}
}

// NewMissingProvinceError は存在しない省コードへの参照エラーを生成する。
func NewMissingProvinceError(provinceCode string) *APIError {
	return &APIError{
		Code:     ErrCodeReferentialViolation,
		Message:  fmt.Sprintf("province %s does not exist", provinceCode),
		Category: "validation",
	}
}

// NewRegionHasProvincesError は省が残っている地域の削除拒否エラーを生成する。
func NewRegionHasProvincesError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeReferentialViolation,
		Message:  fmt.Sprintf("cannot delete region %s: provinces still reference it", code),
		Category: "validation",
	}
}

// NewDuplicateKeyError は主キー衝突エラーを生成する。作成は既存を黙って上書きしない。
func NewDuplicateKeyError(kind, key string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateKey,
		Message:  fmt.Sprintf("%s %s already exists", kind, key),
		Category: "validation",
	}
}

// NewInvalidRequestError は入力検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
	}
}

// NewNotFoundError は対象リソース未検出エラーを生成する。
func NewNotFoundError(kind, key string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s %s not found", kind, key),
		Category: "validation",
	}
}

// NewUpstreamFailureError はIDプロバイダまたはストア自体の障害エラーを生成する。
// ゲートウェイとガードは自動リトライしない（上位レイヤの判断に委ねる）。
func NewUpstreamFailureError(op string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailure,
		Message:  fmt.Sprintf("upstream operation failed: %s", op),
		Category: "system",
	}
}
