package buckler

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hazyhaar/sf6scout/buckler/internal/extract"
	"github.com/hazyhaar/sf6scout/namekey"
)

// Merge defaults for unmatched rows.
const (
	NoLeaguePoints = "---"
	NoMasterRate   = ""
)

// Merge joins the three stat views. Win-rate records define the rows and
// their order, one row each; league-point and master-rate records contribute the first
// entry with an equal name key. The icon comes from the league-point record
// when it has one, else from the win-rate record.
func Merge(winRate, leaguePoint, masterRate []extract.RawRecord) []CharacterStat {
	lpByKey := firstByKey(leaguePoint)
	mrByKey := firstByKey(masterRate)

	out := make([]CharacterStat, 0, len(winRate))
	for _, w := range winRate {
		key := namekey.Normalize(w.Name)
		row := CharacterStat{
			Name:         w.Name,
			WinRate:      w.Metric,
			LeaguePoints: NoLeaguePoints,
			MasterRate:   NoMasterRate,
			Icon:         w.Icon,
		}
		if lp, ok := lpByKey[key]; ok {
			row.LeaguePoints = lp.Metric
			if lp.Icon != "" {
				row.Icon = lp.Icon
			}
		}
		if mr, ok := mrByKey[key]; ok {
			row.MasterRate = mr.Metric
		}
		out = append(out, row)
	}
	return out
}

func firstByKey(records []extract.RawRecord) map[string]extract.RawRecord {
	m := make(map[string]extract.RawRecord, len(records))
	for _, r := range records {
		key := namekey.Normalize(r.Name)
		if key == "" {
			continue
		}
		if _, seen := m[key]; !seen {
			m[key] = r
		}
	}
	return m
}

// toMatchups converts extracted matchup rows.
func toMatchups(records []extract.RawRecord) []Matchup {
	out := make([]Matchup, 0, len(records))
	for _, r := range records {
		out = append(out, Matchup{Opponent: r.Name, Count: r.Aux, WinRate: r.Metric, Icon: r.Icon})
	}
	return out
}

var nonDigitRe = regexp.MustCompile(`[^0-9]`)
var nonRateRe = regexp.MustCompile(`[^0-9.]`)

// MatchCount returns the number of battles in a count such as "12戦"; 0 when
// it has no digits.
func MatchCount(count string) int {
	n, err := strconv.Atoi(nonDigitRe.ReplaceAllString(count, ""))
	if err != nil {
		return 0
	}
	return n
}

// RatePercent returns the numeric value of a rate such as "58.3%"; 0 when
// it cannot be read.
func RatePercent(rate string) float64 {
	f, err := strconv.ParseFloat(nonRateRe.ReplaceAllString(rate, ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// Rank returns up to n best matchups by descending win rate and up to n
// worst by ascending win rate, ignoring opponents never played. Ties keep
// the input order.
func Rank(matchups []Matchup, n int) (best, worst []Matchup) {
	played := make([]Matchup, 0, len(matchups))
	for _, m := range matchups {
		if MatchCount(m.Count) > 0 {
			played = append(played, m)
		}
	}
	best = slices.Clone(played)
	slices.SortStableFunc(best, func(a, b Matchup) int {
		return cmp.Compare(RatePercent(b.WinRate), RatePercent(a.WinRate))
	})
	worst = slices.Clone(played)
	slices.SortStableFunc(worst, func(a, b Matchup) int {
		return cmp.Compare(RatePercent(a.WinRate), RatePercent(b.WinRate))
	})
	if n < 0 {
		n = 0
	}
	return best[:min(n, len(best))], worst[:min(n, len(worst))]
}

// IconPath is the local asset path of a character's icon: the name
// lower-cased without whitespace, under /characters/.
func IconPath(name string) string {
	return "/characters/" + strings.ToLower(strings.Join(strings.Fields(name), "")) + ".png"
}
