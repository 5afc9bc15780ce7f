package buckler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMCPImpl = &mcp.Implementation{Name: "buckler-test", Version: "0.1.0"}

func mcpSession(t *testing.T, op *fakeOpener) *mcp.ClientSession {
	t.Helper()
	s := New(testConfig(), WithOpener(op), WithSleep((&sleeps{}).sleep))
	srv := mcp.NewServer(testMCPImpl, nil)
	MakeEndpoints(s, nil).RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	session, err := mcp.NewClient(testMCPImpl, nil).Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text
}

func TestMCP_Stats(t *testing.T) {
	session := mcpSession(t, &fakeOpener{newPage: statsPage})

	res := callTool(t, session, "buckler_stats", map[string]any{"userCode": "1415778165"})
	require.False(t, res.IsError, resultText(t, res))

	var got StatsResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, SourceLive, got.Source)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "18000", got.Data[0].LeaguePoints)
}

func TestMCP_Matchups(t *testing.T) {
	session := mcpSession(t, &fakeOpener{newPage: matchupPage})

	res := callTool(t, session, "buckler_matchups", map[string]any{"userCode": "1415778165", "character": "JP"})
	require.False(t, res.IsError, resultText(t, res))

	var got MatchupsResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Len(t, got.Data, 3)
	assert.Equal(t, []string{"KEN", "A.K.I."}, opponents(got.Best))
	assert.Equal(t, []string{"A.K.I.", "KEN"}, opponents(got.Worst))
}

func TestMCP_SearchNoPlayers(t *testing.T) {
	session := mcpSession(t, &fakeOpener{newPage: func() *fakePage {
		p := searchPage()
		p.views["search"] = "<p>0 results</p>"
		return p
	}})

	res := callTool(t, session, "buckler_search", map[string]any{"name": "nobody"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no player found")
}

func TestMCP_InvalidInputIsToolError(t *testing.T) {
	op := &fakeOpener{newPage: statsPage}
	session := mcpSession(t, op)

	res := callTool(t, session, "buckler_stats", map[string]any{"userCode": "abc"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "userCode must be numeric")
	assert.Zero(t, op.opens())
}

func TestEndpoints_Search(t *testing.T) {
	s := New(testConfig(), WithOpener(&fakeOpener{newPage: searchPage}), WithSleep((&sleeps{}).sleep))
	e := MakeEndpoints(s, nil)

	resp, err := e.Search(context.Background(), &SearchRequest{Name: "Tokido"})
	require.NoError(t, err)
	got := resp.(*SearchResult)
	assert.Equal(t, "3141592653", got.UserCode)
	assert.Len(t, got.Players, 1)

	_, err = e.Stats(context.Background(), &SearchRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrClientInput)
}
