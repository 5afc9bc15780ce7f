package buckler

// Result sources.
const (
	SourceLive  = "live"
	SourceCache = "cache"
)

// CharacterStat is one row of a player's per-character dataset. There is
// exactly one per character listed in the win-rate view.
type CharacterStat struct {
	Name         string `json:"name"`
	WinRate      string `json:"winRate"`
	LeaguePoints string `json:"leaguePoints"`
	MasterRate   string `json:"masterRate"`
	Icon         string `json:"icon"`
}

// StatsResult is the answer of FetchCharacterStats.
type StatsResult struct {
	Source string          `json:"source"`
	Data   []CharacterStat `json:"data"`
}

// Matchup is one opponent row of a character's matchup breakdown.
type Matchup struct {
	Opponent string `json:"opponent"`
	Count    string `json:"count"` // e.g. "12戦"
	WinRate  string `json:"rate"`  // e.g. "58.3%", "---" when unknown
	Icon     string `json:"icon"`
}

// Player is one fighters search hit.
type Player struct {
	Name     string `json:"name"`
	UserCode string `json:"userCode"`
	Info     string `json:"info"`
}
