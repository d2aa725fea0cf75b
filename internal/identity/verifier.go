package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/foodatlas/internal/model"
)

// tokenClaims はJWTパース用の内部クレーム型。
// roleクレームに加え、旧形式の admin:true フラグも受け付ける。
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
}

// JWTVerifier はHS256署名のIDトークンを検証するTokenVerifier実装。
type JWTVerifier struct {
	secret []byte
	issuer string // 空の場合はissuer検証を行わない
}

// NewJWTVerifier はJWTVerifierを生成する。
// issuerを指定した場合、issクレームの一致も検証される。
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// VerifyToken はトークンを検証しClaimsを返す。
// 署名不正・期限切れ・不正形式はすべてErrInvalidTokenをラップしたエラーになる。
func (v *JWTVerifier) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if tc.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &Claims{
		Subject: tc.Subject,
		Email:   tc.Email,
		Role:    resolveRole(tc),
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	return claims, nil
}

// resolveRole はクレームからロールを解決する。
// roleクレームが空で旧形式のadminフラグが立っている場合はadminとみなす。
// 未知のロール文字列はRoleNoneに解決される。
func resolveRole(tc *tokenClaims) model.Role {
	if tc.Role == "" && tc.Admin {
		return model.RoleAdmin
	}
	return model.ParseRole(tc.Role)
}

// compile-time interface check
var _ TokenVerifier = (*JWTVerifier)(nil)
