// Package model はドメインモデルを定義する。
package model

// Role は認証済みプリンシパルの権限ロールを表す。
// クローズドな集合であり、未知のクレーム値はRoleNoneに解決される。
type Role string

const (
	// RoleAdmin は管理者ロール。すべての認可ゲートを通過する。
	RoleAdmin Role = "admin"
	// RoleUser は一般ユーザーロール。
	RoleUser Role = "user"
	// RoleNone はロール無しを表す。認可判定では常に拒否される。
	RoleNone Role = ""
)

// ParseRole はクレーム文字列をRoleに変換する。
// 未知の値はデフォルトせずRoleNoneに解決する（認可目的では未認証扱い）。
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "user":
		return RoleUser
	default:
		return RoleNone
	}
}

// Satisfies はこのロールがrequiredを要求するゲートを通過できるかを返す。
// ロール階層: adminはuserを包含する。文字列比較ではなく明示的な包含表で判定する。
func (r Role) Satisfies(required Role) bool {
	if r == RoleNone || required == RoleNone {
		return false
	}
	if r == RoleAdmin {
		return true
	}
	return r == required
}
