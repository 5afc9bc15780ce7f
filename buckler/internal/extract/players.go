package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// PlayerHit is one entry of the fighters search result list.
type PlayerHit struct {
	Name     string
	UserCode string
	Info     string
}

// maxInfoRunes bounds the free-text snippet kept per search hit.
const maxInfoRunes = 80

var profileHrefRe = regexp.MustCompile(`/profile/(\d+)$`)

var strictPolicy = bluemonday.StrictPolicy()

// ExtractPlayers returns the search hits found on a fighters search page, in
// document order, one per distinct profile identifier.
func ExtractPlayers(rawHTML []byte) ([]PlayerHit, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse HTML: %w", err)
	}

	hits := []PlayerHit{}
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := profileHrefRe.FindStringSubmatch(strings.TrimSpace(href))
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true

		name := firstLine(a)
		scope := a.Closest("li")
		if scope.Length() == 0 {
			scope = a
		}
		hits = append(hits, PlayerHit{
			Name:     name,
			UserCode: m[1],
			Info:     snippet(scope, name),
		})
	})
	return hits, nil
}

// firstLine returns the first non-empty text node under sel, in document order.
func firstLine(sel *goquery.Selection) string {
	var walk func(*xhtml.Node) string
	walk = func(n *xhtml.Node) string {
		if n.Type == xhtml.TextNode {
			return CleanText(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	for _, n := range sel.Nodes {
		if t := walk(n); t != "" {
			return t
		}
	}
	return ""
}

// snippet renders the visible text of sel through a strict sanitizer, drops
// the display name and truncates the remainder.
func snippet(sel *goquery.Selection, name string) string {
	fragment, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	// Tags become separators so adjacent cells do not run together.
	fragment = strings.ReplaceAll(fragment, "<", " <")
	text := CleanText(html.UnescapeString(strictPolicy.Sanitize(fragment)))
	if name != "" {
		text = CleanText(strings.Replace(text, name, "", 1))
	}
	runes := []rune(text)
	if len(runes) > maxInfoRunes {
		text = strings.TrimSpace(string(runes[:maxInfoRunes])) + "…"
	}
	return text
}
