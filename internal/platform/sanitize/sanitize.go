// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package sanitize provides HTML sanitization policies for user-supplied content.

Article bodies are written by editors in a rich-text editor and stored as HTML;
classified descriptions and business reviews accept a plain subset. Both pass
through allow-list policies (bluemonday) before persistence so that stored
content is always safe to render.

Policies:

  - Article: paragraph-level markup, links, images (https only).
  - Text: inline emphasis only — everything else is stripped.

Sanitization is idempotent: sanitizing already-clean content returns it unchanged.
*/
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer holds the compiled bluemonday policies.
//
// # Concurrency
//
// bluemonday policies are safe for concurrent use once built, so a single
// Sanitizer is shared across all requests.
type Sanitizer struct {
	article *bluemonday.Policy
	text    *bluemonday.Policy
}

// New builds the platform sanitization policies.
func New() *Sanitizer {
	article := bluemonday.NewPolicy()
	article.AllowElements(
		"p", "br", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "figure", "figcaption",
	)

	// Links open in a new tab and never pass referrer data.
	article.AllowAttrs("href").OnElements("a")
	article.AllowRelativeURLs(false)
	article.RequireNoFollowOnLinks(false)
	article.AddTargetBlankToFullyQualifiedLinks(true)
	article.RequireNoReferrerOnLinks(true)

	// Images only over https, with alt text preserved.
	article.AllowAttrs("src", "alt").OnElements("img")
	article.AllowURLSchemes("https")

	text := bluemonday.NewPolicy()
	text.AllowElements("strong", "em", "br")

	return &Sanitizer{article: article, text: text}
}

// Article sanitizes rich HTML for news article bodies.
func (s *Sanitizer) Article(rawHTML string) string {
	return s.article.Sanitize(rawHTML)
}

// Text sanitizes near-plain content: classified descriptions and review bodies.
func (s *Sanitizer) Text(raw string) string {
	return s.text.Sanitize(raw)
}
