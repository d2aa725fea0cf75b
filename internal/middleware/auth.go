// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/foodatlas/internal/identity"
	"github.com/hitoshi/foodatlas/internal/model"
)

// idTokenCookieName はヘッダーにクレデンシャルが無い場合に参照するCookie名。
const idTokenCookieName = "idToken"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// AuthMetrics は認可判定の記録インターフェース。metricsパッケージの部分集合。
type AuthMetrics interface {
	RecordAuthDecision(result string)
	RecordVerifyLatency(d time.Duration)
}

// Authenticator はリクエスト認可ゲートウェイ。
// クレデンシャル抽出、IDプロバイダによる検証、ロール解決、
// クライアント種別に応じたレスポンスネゴシエーションを行う。
type Authenticator struct {
	verifier  identity.TokenVerifier
	loginPath string
	metrics   AuthMetrics // nilの場合は記録しない
}

// NewAuthenticator はAuthenticatorを生成する。
// loginPathはHTML希望クライアントの失敗時リダイレクト先。
func NewAuthenticator(verifier identity.TokenVerifier, loginPath string, metrics AuthMetrics) *Authenticator {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Authenticator{
		verifier:  verifier,
		loginPath: loginPath,
		metrics:   metrics,
	}
}

// RequireRole は指定ロールを要求する認可ミドルウェアを返す。
// 判定規則: Identityのロールがrequiredと一致するか、adminであれば通過する。
// 成功時は解決済みIdentityをリクエストコンテキストに注入する。
// 検証失敗は即時終端であり、IDプロバイダ呼び出しの再試行は行わない。
func (a *Authenticator) RequireRole(required model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. クレデンシャル抽出（ヘッダー優先、Cookieフォールバック）
			token, ok := extractCredential(r)
			if !ok {
				a.record("unauthenticated")
				slog.Warn("authentication failed: no credential",
					slog.String("path", r.URL.Path),
				)
				a.reject(w, r, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 2. IDプロバイダによる検証
			start := time.Now()
			claims, err := a.verifier.VerifyToken(r.Context(), token)
			if a.metrics != nil {
				a.metrics.RecordVerifyLatency(time.Since(start))
			}
			if err != nil {
				// Unauthenticatedとは区別してログに残す（クライアント応答は同一系統）
				a.record("invalid_credential")
				slog.Warn("authentication failed: credential rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				a.reject(w, r, http.StatusUnauthorized, model.NewInvalidCredentialError())
				return
			}

			ident := &model.Identity{
				SubjectID: claims.Subject,
				Email:     claims.Email,
				Role:      claims.Role,
				IssuedAt:  claims.IssuedAt,
				ExpiresAt: claims.ExpiresAt,
			}

			// 3. ロール解決と認可判定
			if !ident.Role.Satisfies(required) {
				a.record("forbidden")
				slog.Warn("authorization failed: insufficient role",
					slog.String("path", r.URL.Path),
					slog.String("subject", ident.SubjectID),
					slog.String("role", string(ident.Role)),
					slog.String("required_role", string(required)),
				)
				a.reject(w, r, http.StatusForbidden, model.NewForbiddenError(required))
				return
			}

			// 4. 認証済みIdentityをコンテキストに注入
			a.record("admitted")
			ctx := context.WithValue(r.Context(), identityContextKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject は失敗レスポンスをネゴシエーションする。
// HTML希望クライアントにはログインページへのリダイレクト（ボディ無し・詳細を漏らさない）、
// それ以外には構造化エラーボディとステータスコードを返す。
func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *model.APIError) {
	if acceptsHTML(r) {
		http.Redirect(w, r, a.loginPath, http.StatusFound)
		return
	}
	WriteErrorResponse(w, statusCode, apiErr)
}

// record は認可判定結果をメトリクスに記録する。
func (a *Authenticator) record(result string) {
	if a.metrics != nil {
		a.metrics.RecordAuthDecision(result)
	}
}

// extractCredential はリクエストからクレデンシャルを抽出する。
// 優先順位: Authorization: Bearer ヘッダー → idToken Cookie。他のソースは参照しない。
// 不正なスキームのヘッダーはエラーではなく「クレデンシャル無し」として扱う。
func extractCredential(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(authHeader, prefix) {
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
			if token != "" {
				return token, true
			}
		}
		// Bearer以外のスキームはフォールバックに進む
	}

	cookie, err := r.Cookie(idTokenCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	return "", false
}

// acceptsHTML はクライアントがHTMLドキュメントを希望しているかを判定する。
// Acceptヘッダーにtext/htmlが明示されている場合のみ真。
// ワイルドカードのみやヘッダー無しのAPIクライアントはJSON扱いとする。
func acceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
			return true
		}
	}
	return false
}

// IdentityFromContext はリクエストコンテキストから認証済みIdentityを取得する。
// 認可ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	ident, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || ident == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return ident, nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, ident *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, ident)
}
