// Package identity は外部IDプロバイダ能力とのインターフェースを定義する。
// トークン検証（ゲートウェイが使用）とアカウント管理（ユーザーサービスが使用）を
// 別インターフェースに分離し、テストではフェイクに差し替え可能にする。
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/foodatlas/internal/model"
)

// ErrInvalidToken はクレデンシャルがIDプロバイダに拒否されたことを表す。
// 期限切れ・不正形式・失効のいずれもこのエラーに集約される（詳細はラップされた原因に残る）。
var ErrInvalidToken = errors.New("invalid or expired ID token")

// ErrAccountNotFound はIDプロバイダにアカウントが存在しないことを表す。
var ErrAccountNotFound = errors.New("account not found in identity provider")

// ErrEmailAlreadyExists は同一メールアドレスのアカウントが既に存在することを表す。
var ErrEmailAlreadyExists = errors.New("email already exists in identity provider")

// Claims は検証済みクレデンシャルから取り出した属性。
type Claims struct {
	Subject   string
	Email     string
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenVerifier はクレデンシャル検証の能力。
// 検証失敗時はErrInvalidTokenをラップしたエラーを返す。
// 部分的にデコードできたトークンや期限切れトークンをClaimsにデフォルトしてはならない。
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// AccountAdmin はIDプロバイダのアカウント管理能力。
type AccountAdmin interface {
	// CreateAccount はアカウントを作成し、割り当てられたsubject idを返す。
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	// UpdateAccount はメールアドレスと表示名を更新する。
	UpdateAccount(ctx context.Context, uid, email, displayName string) error
	// SetRoleClaim はロールクレームを設定する。adminには互換のためadminフラグも付与される。
	SetRoleClaim(ctx context.Context, uid string, role model.Role) error
	// DeleteAccount はアカウントを削除する。存在しない場合はErrAccountNotFoundを返す。
	DeleteAccount(ctx context.Context, uid string) error
}
