// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は求人説明、カバーレター、選考メモ、自己紹介といった
// 利用者入力の自由記述をサニタイズする。
// bluemondayの許可リストポリシーで簡単な書式タグのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は自由記述テキストのサニタイズ機能のインターフェース。
type Sanitizer interface {
	// Sanitize は許可タグ（p, br, ul, ol, li, strong, em, a）のみを残し、前後の空白を除去する。
	// script, style等のタグとon*属性は除去される。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string

	// StripTags はすべてのタグを除去する。タイトルなど1行の項目に使う。
	StripTags(raw string) string
}

// TextSanitizer はSanitizerの実装。ポリシーはスレッドセーフに共有できる。
type TextSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
// aタグはhttp/httpsの絶対URLのみ許可し、target="_blank"とrel="noopener noreferrer"を付与する。
func NewTextSanitizer() *TextSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &TextSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize は自由記述をサニタイズする。
func (s *TextSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// StripTags はすべてのタグを除去する。
func (s *TextSanitizer) StripTags(raw string) string {
	return strings.TrimSpace(s.strict.Sanitize(raw))
}

// compile-time interface check
var _ Sanitizer = (*TextSanitizer)(nil)
