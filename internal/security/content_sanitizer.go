// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は投稿とレビューの本文をサニタイズし、
// 利用者が入力したHTMLによるXSSを防ぐ。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は本文サニタイズ機能のインターフェースを定義する。
type ContentSanitizer interface {
	// Sanitize は本文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを通過させ、
	// script, iframe, style, imgタグおよびon*イベント属性を除去する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string

	// Excerpt はタグを全て除去したプレーンテキストを先頭maxRunes文字で切り詰めて返す。
	// 切り詰めた場合は末尾に "…" を付ける。
	Excerpt(rawHTML string, maxRunes int) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので、生成後は共有して使う。
type contentSanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em
//   - aのhref属性: http, https, mailtoのみ
//   - aタグ: rel="nofollow noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return strings.TrimSpace(s.policy.Sanitize(rawHTML))
}

// Excerpt は一覧表示用の抜粋を返す。
// StrictPolicyはエンティティをエスケープして返すため、テンプレート側で
// 二重にエスケープされないよう元の文字に戻しておく。
func (s *contentSanitizer) Excerpt(rawHTML string, maxRunes int) string {
	text := html.UnescapeString(s.strict.Sanitize(rawHTML))
	text = strings.Join(strings.Fields(text), " ")

	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}

var _ ContentSanitizer = (*contentSanitizer)(nil)
