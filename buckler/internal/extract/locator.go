package extract

// Role names the semantic position of a field inside a view.
type Role int

const (
	RoleContainer Role = iota // the article holding the list
	RoleName                  // character name inside a list item
	RoleMetric                // dedicated metric element inside a list item
	RoleBar                   // graphical bar whose inline width carries a percentage
	RoleIcon                  // character image
)

// Locator resolves a CSS selector for each (view, role) pair. The extractor
// depends only on this interface, so a markup change on the target site
// needs a new Locator, not a new extractor.
type Locator interface {
	Selector(kind Kind, role Role) string
}

// Markers is a class-name-fragment based Locator. Each entry is matched with
// [class*="..."] so hashed CSS-module suffixes do not matter.
type Markers struct {
	Container map[Kind]string
	Name      map[Kind]string
	Metric    map[Kind]string
	Bar       string
}

// BucklerLocator targets the Buckler profile markup as of the 2024 layout.
var BucklerLocator Locator = Markers{
	Container: map[Kind]string{
		KindWinRate:     "winning_rate",
		KindLeaguePoint: "league_point",
		KindMasterRate:  "master_rate",
		KindMatchup:     "winning_rate",
	},
	Name: map[Kind]string{
		KindWinRate:     "winning_rate_name",
		KindLeaguePoint: "league_point_name",
		KindMasterRate:  "league_point_name",
		KindMatchup:     "winning_rate_name",
	},
	Metric: map[Kind]string{
		KindWinRate:     "winning_rate_rate",
		KindLeaguePoint: "league_point_lp",
		KindMasterRate:  "league_point_mr",
		KindMatchup:     "winning_rate_rate",
	},
	Bar: "winning_rate_graf",
}

// Selector implements Locator.
func (m Markers) Selector(kind Kind, role Role) string {
	switch role {
	case RoleContainer:
		if v := m.Container[kind]; v != "" {
			return `article[class*="` + v + `"]`
		}
	case RoleName:
		return classContains(m.Name[kind])
	case RoleMetric:
		return classContains(m.Metric[kind])
	case RoleBar:
		return classContains(m.Bar)
	case RoleIcon:
		return "img[src]"
	}
	return ""
}

func classContains(fragment string) string {
	if fragment == "" {
		return ""
	}
	return `[class*="` + fragment + `"]`
}
