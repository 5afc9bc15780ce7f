package buckler

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/sf6scout/kit"
)

// RegisterMCP registers the buckler tools on srv.
func (e Endpoints) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "buckler_stats",
		Description: "Per-character win rate, league points and master rate of a Street Fighter 6 player.",
		InputSchema: inputSchema(map[string]any{
			"userCode": map[string]any{"type": "string", "description": "Numeric Buckler profile ID"},
		}, []string{"userCode"}),
	}, e.Stats, kit.DecodeArgs[StatsRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "buckler_matchups",
		Description: "Matchup breakdown of one character of a player, with the best and worst three opponents.",
		InputSchema: inputSchema(map[string]any{
			"userCode":  map[string]any{"type": "string", "description": "Numeric Buckler profile ID"},
			"character": map[string]any{"type": "string", "description": "Character name, e.g. RYU or J.P."},
		}, []string{"userCode", "character"}),
	}, e.Matchups, kit.DecodeArgs[MatchupsRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "buckler_search",
		Description: "Find Buckler profile IDs by player display name.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Player display name"},
		}, []string{"name"}),
	}, e.Search, kit.DecodeArgs[SearchRequest]())
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
