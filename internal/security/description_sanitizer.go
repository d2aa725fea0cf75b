// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizerService は管理画面から入力される説明文をサニタイズし、
// 格納データ経由のXSSからカタログの閲覧側を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 最小限の整形タグのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DescriptionSanitizerService は説明文のサニタイズ機能のインターフェースを定義する。
// 省・料理の作成および更新時、永続化の前に使用される。
type DescriptionSanitizerService interface {
	// Sanitize は説明文をサニタイズして安全なテキストを返す。
	// 許可タグ（p, br, strong, em）のみを通過させ、
	// script, iframe, style, img, aタグおよびon*イベント属性を除去する。
	// 前後の空白は除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerServiceの新しいインスタンスを生成する。
// 説明文はほぼ平文であることを想定し、段落と強調のみを許可する。
// リンクと画像は許可しない。画像は専用のアップロード経路で管理されるため、
// 説明文に埋め込まれたsrcを信頼する理由がない。
func NewDescriptionSanitizer() *descriptionSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em")

	return &descriptionSanitizer{
		policy: p,
	}
}

// Sanitize は説明文をサニタイズして安全なテキストを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
