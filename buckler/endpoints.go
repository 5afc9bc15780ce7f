package buckler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/sf6scout/kit"
)

// RankSize is the length of the best and worst matchup lists.
const RankSize = 3

// StatsRequest asks for a player's per-character stats.
type StatsRequest struct {
	UserCode string `json:"userCode"`
}

// MatchupsRequest asks for one character's matchup breakdown.
type MatchupsRequest struct {
	UserCode  string `json:"userCode"`
	Character string `json:"character"`
}

// MatchupsResult carries the breakdown with its rankings.
type MatchupsResult struct {
	Data  []Matchup `json:"data"`
	Best  []Matchup `json:"best"`
	Worst []Matchup `json:"worst"`
}

// SearchRequest asks for players by display name.
type SearchRequest struct {
	Name string `json:"name"`
}

// SearchResult lists search hits; UserCode repeats the first hit's code.
type SearchResult struct {
	Players  []Player `json:"players"`
	UserCode string   `json:"userCode,omitempty"`
}

// Endpoints exposes the Scout operations to the HTTP, MCP and CLI surfaces.
type Endpoints struct {
	Stats    kit.Endpoint // *StatsRequest → *StatsResult
	Matchups kit.Endpoint // *MatchupsRequest → *MatchupsResult
	Search   kit.Endpoint // *SearchRequest → *SearchResult
}

// MakeEndpoints wraps s with call logging.
func MakeEndpoints(s *Scout, logger *slog.Logger) Endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	return Endpoints{
		Stats:    kit.Logging(logger, "stats")(s.statsEndpoint),
		Matchups: kit.Logging(logger, "matchups")(s.matchupsEndpoint),
		Search:   kit.Logging(logger, "search")(s.searchEndpoint),
	}
}

func (s *Scout) statsEndpoint(ctx context.Context, req any) (any, error) {
	r, ok := req.(*StatsRequest)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected request %T", ErrClientInput, req)
	}
	return s.FetchCharacterStats(ctx, r.UserCode)
}

func (s *Scout) matchupsEndpoint(ctx context.Context, req any) (any, error) {
	r, ok := req.(*MatchupsRequest)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected request %T", ErrClientInput, req)
	}
	data, err := s.FetchMatchupBreakdown(ctx, r.UserCode, r.Character)
	if err != nil {
		return nil, err
	}
	best, worst := Rank(data, RankSize)
	return &MatchupsResult{Data: data, Best: best, Worst: worst}, nil
}

func (s *Scout) searchEndpoint(ctx context.Context, req any) (any, error) {
	r, ok := req.(*SearchRequest)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected request %T", ErrClientInput, req)
	}
	players, err := s.SearchPlayersByName(ctx, r.Name)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoPlayers, r.Name)
	}
	return &SearchResult{Players: players, UserCode: players[0].UserCode}, nil
}
