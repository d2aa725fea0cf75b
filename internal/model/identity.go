package model

import "time"

// Identity は検証済みクレデンシャルから毎リクエスト生成される認証済みプリンシパル。
// ゲートウェイ自身は永続化せず、リクエスト間でキャッシュもしない。
type Identity struct {
	SubjectID string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
