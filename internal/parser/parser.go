// Package parser extracts structured articles from rendered article pages.
package parser

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/article-crawler/internal/entity"
	"github.com/user/article-crawler/internal/repository"
	"github.com/user/article-crawler/pkg/utils"
)

const (
	maxFallbackParagraphs = 10
	summaryTextBlocks     = 3
	maxSummaryLength      = 200
	maxTitleSummaryLength = 100
	ellipsis              = "..."
	approximateDateLayout = "2006-01-02"
)

// ErrNoTitle means the page is unusable: none of the title selectors produced text.
var ErrNoTitle = fmt.Errorf("%w: title", repository.ErrSelectorNotFound)

// Parser turns article markup into an entity.Article. Apart from timestamps it is a pure
// function of markup and URL.
type Parser struct {
	rules  Rules
	origin *url.URL
	now    func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock replaces time.Now for timestamps and the approximate date fallback.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

func New(rules Rules, opts ...Option) (*Parser, error) {
	origin, err := url.Parse(rules.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid site origin %q", rules.Origin)
	}
	p := &Parser{rules: rules, origin: origin, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse extracts the article at pageURL from markup. It only fails with ErrNoTitle
// (or when the markup cannot be read at all); every other missing field has a fallback.
func (p *Parser) Parse(markup, pageURL string) (*entity.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title, ok := firstText(doc, p.rules.Title)
	if !ok {
		return nil, ErrNoTitle
	}

	now := p.now()
	date, ok := firstDate(doc, p.rules.Date)
	approximate := !ok
	if approximate {
		date = now.Format(approximateDateLayout)
	}

	var blocks []entity.ContentBlock
	if container := firstMatch(doc, p.rules.Content); container != nil {
		blocks = p.walk(container.Children(), nil)
		if len(blocks) == 0 {
			blocks = fallbackParagraphs(container)
		}
	}

	summary := summarize(blocks, title)
	if len(blocks) == 0 && p.rules.EmptyContentPlaceholder != "" {
		blocks = []entity.ContentBlock{{Kind: entity.BlockText, Value: p.rules.EmptyContentPlaceholder}}
	}

	return &entity.Article{
		ID:                     utils.ArticleID(pageURL),
		Title:                  title,
		PublishDate:            date,
		PublishDateApproximate: approximate,
		URL:                    pageURL,
		Content:                blocks,
		Category:               p.rules.Category,
		Summary:                summary,
		Source:                 p.rules.Source,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// walk classifies nodes in document order. Elements holding nested media are descended into
// so that an image wrapped in a paragraph is not flattened away.
func (p *Parser) walk(nodes *goquery.Selection, blocks []entity.ContentBlock) []entity.ContentBlock {
	nodes.Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			if text := strings.TrimSpace(s.Text()); text != "" {
				blocks = append(blocks, entity.ContentBlock{Kind: entity.BlockText, Value: text})
			}
			return
		case "#comment":
			return
		}
		if s.Is(skippedSelector) {
			return
		}
		for _, rule := range blockRules {
			if !s.Is(rule.match) {
				continue
			}
			if value, ok := rule.extract(p, s); ok {
				blocks = append(blocks, entity.ContentBlock{Kind: rule.kind, Value: value})
			}
			return
		}
		if s.Find(mediaSelector).Length() > 0 {
			blocks = p.walk(s.Contents(), blocks)
			return
		}
		if text, ok := trimmedText(p, s); ok {
			blocks = append(blocks, entity.ContentBlock{Kind: entity.BlockText, Value: text})
		}
	})
	return blocks
}

func (p *Parser) absolute(raw string) (string, bool) {
	abs, err := utils.ToAbsoluteURL(p.origin, raw)
	if err != nil || abs == "" {
		return "", false
	}
	return abs, true
}

// fallbackParagraphs splits the container text on line breaks.
func fallbackParagraphs(container *goquery.Selection) []entity.ContentBlock {
	var blocks []entity.ContentBlock
	for _, line := range strings.Split(container.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, entity.ContentBlock{Kind: entity.BlockText, Value: line})
		if len(blocks) == maxFallbackParagraphs {
			break
		}
	}
	return blocks
}

func summarize(blocks []entity.ContentBlock, title string) string {
	var texts []string
	for _, b := range blocks {
		if b.Kind != entity.BlockText {
			continue
		}
		texts = append(texts, b.Value)
		if len(texts) == summaryTextBlocks {
			break
		}
	}
	if len(texts) == 0 {
		return truncate(title, maxTitleSummaryLength, "")
	}
	return truncate(strings.Join(texts, " "), maxSummaryLength, ellipsis)
}

// truncate cuts s to n runes and appends marker when anything was removed.
func truncate(s string, n int, marker string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + marker
}
