package model

import "time"

// UserProfile はIDプロバイダのアカウントをミラーするプロフィールドキュメント。
// AuthUIDは実際に使用されたIDプロバイダのsubject idを常に指す。
// ドキュメント自身のIDがsubject idと異なる場合でもAuthUIDが正となる。
type UserProfile struct {
	ID        string
	Email     string
	FullName  string
	Phone     string
	Role      Role
	AuthUID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolveAuthUID はIDプロバイダ操作に使うsubject idを解決する。
// AuthUIDが未設定の古いドキュメントではドキュメントIDにフォールバックする。
func (u *UserProfile) ResolveAuthUID() string {
	if u.AuthUID != "" {
		return u.AuthUID
	}
	return u.ID
}
