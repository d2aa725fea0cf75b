package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/foodatlas/internal/model"
)

const testSecret = "test-signing-secret"

// signToken はテスト用のHS256トークンを生成する。
func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "uid-1",
		"email": "admin@example.com",
		"role":  "admin",
		"iat":   time.Now().Add(-time.Minute).Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

// TestVerifyToken_Valid は正当なトークンからClaimsが取り出せることを検証する。
func TestVerifyToken_Valid(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims, err := v.VerifyToken(context.Background(), signToken(t, testSecret, validClaims()))
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if claims.Subject != "uid-1" {
		t.Errorf("Subject = %q, want uid-1", claims.Subject)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}

// TestVerifyToken_Expired は期限切れトークンがErrInvalidTokenになることを検証する。
// 期限切れでもClaimsにデフォルトしてはならない。
func TestVerifyToken_Expired(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	got, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if got != nil {
		t.Error("expired token must not yield claims")
	}
}

// TestVerifyToken_WrongSignature は署名不正がErrInvalidTokenになることを検証する。
func TestVerifyToken_WrongSignature(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	_, err := v.VerifyToken(context.Background(), signToken(t, "other-secret", validClaims()))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

// TestVerifyToken_Malformed は不正形式トークンがErrInvalidTokenになることを検証する。
func TestVerifyToken_Malformed(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	_, err := v.VerifyToken(context.Background(), "not.a.token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

// TestVerifyToken_MissingExpiration はexpクレーム欠落が拒否されることを検証する。
func TestVerifyToken_MissingExpiration(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims := validClaims()
	delete(claims, "exp")

	_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing exp, got %v", err)
	}
}

// TestVerifyToken_MissingSubject はsubクレーム欠落が拒否されることを検証する。
func TestVerifyToken_MissingSubject(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims := validClaims()
	delete(claims, "sub")

	_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing sub, got %v", err)
	}
}

// TestVerifyToken_UnknownRoleResolvesToNone は未知のロールクレームがRoleNoneに
// 解決されることを検証する。デフォルトでロールを与えてはならない。
func TestVerifyToken_UnknownRoleResolvesToNone(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims := validClaims()
	claims["role"] = "superuser"

	got, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if got.Role != model.RoleNone {
		t.Errorf("Role = %q, want RoleNone", got.Role)
	}
}

// TestVerifyToken_LegacyAdminFlag は旧形式のadmin:trueフラグがadminに解決されることを検証する。
func TestVerifyToken_LegacyAdminFlag(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims := validClaims()
	delete(claims, "role")
	claims["admin"] = true

	got, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if got.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin (legacy flag)", got.Role)
	}
}

// TestVerifyToken_RoleClaimWinsOverLegacyFlag はroleクレームが旧フラグより優先されることを検証する。
func TestVerifyToken_RoleClaimWinsOverLegacyFlag(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")

	claims := validClaims()
	claims["role"] = "user"
	claims["admin"] = true

	got, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if got.Role != model.RoleUser {
		t.Errorf("Role = %q, want user (role claim takes precedence)", got.Role)
	}
}

// TestVerifyToken_IssuerChecked はissuer指定時にissクレームが検証されることを検証する。
func TestVerifyToken_IssuerChecked(t *testing.T) {
	v := NewJWTVerifier(testSecret, "https://idp.example.com")

	claims := validClaims()
	claims["iss"] = "https://idp.example.com"
	if _, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims)); err != nil {
		t.Fatalf("VerifyToken returned error for matching issuer: %v", err)
	}

	claims["iss"] = "https://evil.example.com"
	_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}
