package testutil

import (
	"fmt"
	"strings"
)

// Origin is the site origin used by the fixtures.
const Origin = "https://ost.51cto.com"

// ListingURL is the listing entry point used by the fixtures.
const ListingURL = Origin + "/postlist"

// ListingMarkup renders a listing page linking to the given hrefs.
func ListingMarkup(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="infinite-list">`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li class="infinite-list-item"><a href="%s">item</a></li>`, h)
	}
	b.WriteString(`</ul><button class="btn-next">下一页</button></body></html>`)
	return b.String()
}

// ArticleMarkup renders an article page with a title and one paragraph.
func ArticleMarkup(title, body string) string {
	return fmt.Sprintf(`<html><body><h1 class="article-title">%s</h1>`+
		`<div class="article-content"><p>%s</p></div></body></html>`, title, body)
}
