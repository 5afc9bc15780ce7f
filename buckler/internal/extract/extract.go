// Package extract pulls character rows out of rendered Buckler profile views.
//
// The pipeline: rendered HTML → locate the view container → iterate list
// items → read name, metric, auxiliary metric and icon per item. Field
// locations come from a Locator; values that are not where the locator says
// are recovered by pattern matching over the item's visible text.
//
// A missing container is not an error: the view is treated as empty.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind identifies one data view of the profile play page.
type Kind int

const (
	KindWinRate Kind = iota
	KindLeaguePoint
	KindMasterRate
	KindMatchup
)

func (k Kind) String() string {
	switch k {
	case KindWinRate:
		return "win_rate"
	case KindLeaguePoint:
		return "league_point"
	case KindMasterRate:
		return "master_rate"
	case KindMatchup:
		return "matchup"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AggregateName is the label of the synthetic row summing all characters.
const AggregateName = "ALL"

// RawRecord is one extracted row of a single view.
type RawRecord struct {
	Name   string
	Metric string // win rate, league points or master rate; matchup win rate
	Aux    string // matchup battle count; empty elsewhere
	Icon   string // absolute image URL, or empty
}

// Default metric values when an item carries none.
const (
	DefaultWinRate     = "-"
	DefaultLeaguePoint = "0"
	DefaultMasterRate  = "---"
	DefaultMatchRate   = "---"
	DefaultMatchCount  = "0戦"
)

var (
	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	countRe   = regexp.MustCompile(`(\d+)\s*戦`)
	numberRe  = regexp.MustCompile(`^\d[\d,]*$`)
	lpRe      = regexp.MustCompile(`(\d[\d,]*)\s*LP`)
	mrRe      = regexp.MustCompile(`(\d[\d,]*)\s*MR`)
	widthRe   = regexp.MustCompile(`width:\s*(\d+(?:\.\d+)?)%`)
)

// Options controls extraction.
type Options struct {
	Locator Locator
	Origin  string // prefix for root-relative image references
}

// Option configures Options.
type Option func(*Options)

// WithLocator overrides the default BucklerLocator.
func WithLocator(l Locator) Option {
	return func(o *Options) { o.Locator = l }
}

// WithOrigin sets the origin used to absolutise root-relative icons.
func WithOrigin(origin string) Option {
	return func(o *Options) { o.Origin = strings.TrimRight(origin, "/") }
}

func buildOptions(opts []Option) Options {
	o := Options{Locator: BucklerLocator, Origin: "https://www.streetfighter.com"}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Extract returns the records of a win-rate, league-point or master-rate view.
// For KindMatchup it behaves like ExtractMatchups.
func Extract(rawHTML []byte, kind Kind, opts ...Option) ([]RawRecord, error) {
	o := buildOptions(opts)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse HTML: %w", err)
	}
	return extractDoc(doc, kind, o), nil
}

// ExtractMatchups returns the per-opponent rows of the matchup view. Aux holds
// the battle count and Metric the win rate against that opponent.
func ExtractMatchups(rawHTML []byte, opts ...Option) ([]RawRecord, error) {
	return Extract(rawHTML, KindMatchup, opts...)
}

func extractDoc(doc *goquery.Document, kind Kind, o Options) []RawRecord {
	containerSel := o.Locator.Selector(kind, RoleContainer)
	if containerSel == "" {
		return []RawRecord{}
	}
	container := doc.Find(containerSel).First()
	if container.Length() == 0 {
		return []RawRecord{}
	}

	nameSel := o.Locator.Selector(kind, RoleName)
	records := []RawRecord{}
	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		name, ok := firstText(li, nameSel)
		if !ok || name == "" || name == AggregateName {
			return
		}
		rec := RawRecord{
			Name: name,
			Icon: iconOf(li, o),
		}
		switch kind {
		case KindWinRate:
			rec.Metric = winRateOf(li, kind, o, DefaultWinRate)
		case KindLeaguePoint:
			rec.Metric = pointsOf(li, kind, o, lpRe, DefaultLeaguePoint)
		case KindMasterRate:
			rec.Metric = pointsOf(li, kind, o, mrRe, DefaultMasterRate)
		case KindMatchup:
			rec.Aux = countOf(li, kind, o)
			rec.Metric = winRateOf(li, kind, o, DefaultMatchRate)
		}
		records = append(records, rec)
	})
	return records
}

// winRateOf reads a percentage: the metric element first, then the item's
// visible text, then the inline width of the bar graph.
func winRateOf(li *goquery.Selection, kind Kind, o Options, def string) string {
	if text, ok := firstText(li, o.Locator.Selector(kind, RoleMetric)); ok {
		if m := percentRe.FindStringSubmatch(text); m != nil {
			return m[1] + "%"
		}
	}
	if m := percentRe.FindStringSubmatch(visibleText(li)); m != nil {
		return m[1] + "%"
	}
	if barSel := o.Locator.Selector(kind, RoleBar); barSel != "" {
		if style, ok := li.Find(barSel).First().Attr("style"); ok {
			if w := WidthPercent(style); w != "" {
				return w
			}
		}
	}
	return def
}

// countOf reads a battle count such as "12戦".
func countOf(li *goquery.Selection, kind Kind, o Options) string {
	if text, ok := firstText(li, o.Locator.Selector(kind, RoleMetric)); ok && strings.Contains(text, "戦") {
		return text
	}
	if m := countRe.FindString(visibleText(li)); m != "" {
		return m
	}
	return DefaultMatchCount
}

// pointsOf reads a league point or master rate value.
func pointsOf(li *goquery.Selection, kind Kind, o Options, suffixRe *regexp.Regexp, def string) string {
	if text, ok := firstText(li, o.Locator.Selector(kind, RoleMetric)); ok {
		if numberRe.MatchString(text) {
			return text
		}
		if m := suffixRe.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	if m := suffixRe.FindStringSubmatch(visibleText(li)); m != nil {
		return m[1]
	}
	return def
}

func iconOf(li *goquery.Selection, o Options) string {
	sel := o.Locator.Selector(KindWinRate, RoleIcon)
	if sel == "" {
		return ""
	}
	src, _ := li.Find(sel).First().Attr("src")
	return AbsoluteURL(o.Origin, src)
}

// WidthPercent extracts N% from an inline "width: N%" declaration.
func WidthPercent(style string) string {
	if m := widthRe.FindStringSubmatch(style); m != nil {
		return m[1] + "%"
	}
	return ""
}

// AbsoluteURL rewrites a root-relative reference against origin. Any other
// reference, including protocol-relative ones, is returned unchanged.
func AbsoluteURL(origin, ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return strings.TrimRight(origin, "/") + ref
	}
	return ref
}
