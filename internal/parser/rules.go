package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/article-crawler/internal/entity"
)

// Rules is the site-specific extraction configuration. Every selector list is tried in order
// and the first usable match wins.
type Rules struct {
	Title   []string
	Date    []string
	Content []string

	// Origin resolves relative media URLs, e.g. "https://ost.51cto.com".
	Origin                  string
	Category                string
	Source                  string
	EmptyContentPlaceholder string
}

// blockRule turns a matching element into a content block. extract reports false when the
// element matched but carries nothing worth keeping.
type blockRule struct {
	kind    entity.BlockKind
	match   string
	extract func(p *Parser, s *goquery.Selection) (string, bool)
}

// blockRules are evaluated in order; anything unmatched falls through to plain text.
var blockRules = []blockRule{
	{kind: entity.BlockImage, match: "img", extract: (*Parser).imageSource},
	{kind: entity.BlockVideo, match: "video", extract: (*Parser).videoSource},
	{kind: entity.BlockCode, match: "pre, code", extract: trimmedText},
}

// mediaSelector finds descendants that must not be flattened into text.
const mediaSelector = "img, video, pre"

// skippedSelector never yields content.
const skippedSelector = "script, style, noscript"

func (p *Parser) imageSource(s *goquery.Selection) (string, bool) {
	for _, attr := range []string{"src", "data-src"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return p.absolute(v)
		}
	}
	return "", false
}

func (p *Parser) videoSource(s *goquery.Selection) (string, bool) {
	if v, ok := s.Attr("src"); ok && strings.TrimSpace(v) != "" {
		return p.absolute(v)
	}
	if v, ok := s.Find("source[src]").First().Attr("src"); ok && strings.TrimSpace(v) != "" {
		return p.absolute(v)
	}
	return "", false
}

func trimmedText(_ *Parser, s *goquery.Selection) (string, bool) {
	text := strings.TrimSpace(s.Text())
	return text, text != ""
}

// firstText returns the trimmed text of the first element with non-empty text
// across selectors.
func firstText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = strings.TrimSpace(s.Text())
			return found == ""
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// firstDate prefers the machine readable datetime attribute over display text.
func firstDate(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if v, ok := s.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			return text, true
		}
	}
	return "", false
}

func firstMatch(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}
