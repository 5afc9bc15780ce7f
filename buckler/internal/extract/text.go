package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CleanText collapses whitespace, removes zero-width characters and trims.
func CleanText(text string) string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(text, " "))
}

var multiSpaceRe = regexp.MustCompile(`\s+`)

// visibleText approximates innerText: text nodes of the selection joined by
// single spaces, script and style content excluded.
func visibleText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return CleanText(sb.String())
}

// firstText returns the cleaned text of the first element matching selector
// under sel, and whether such an element exists.
func firstText(sel *goquery.Selection, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	return CleanText(found.Text()), true
}
