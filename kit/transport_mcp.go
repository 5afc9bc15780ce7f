package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/sf6scout/idgen"
)

// MCPDecoder turns tool arguments into an endpoint request.
type MCPDecoder func(*mcp.CallToolRequest) (any, error)

// DecodeArgs returns an MCPDecoder that unmarshals the arguments into a new
// T and hands *T to the endpoint. Absent arguments decode to the zero T.
func DecodeArgs[T any]() MCPDecoder {
	return func(req *mcp.CallToolRequest) (any, error) {
		v := new(T)
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

// RegisterMCPTool exposes endpoint as tool on srv. Every call gets its own
// request ID. Bad arguments and endpoint failures reach the client as tool
// errors carrying the message.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, err := decode(req)
		if err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		out, err := endpoint(NewCall(ctx, TransportMCP, idgen.Request()), in)
		if err != nil {
			return toolError(err), nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return toolError(fmt.Errorf("encode result: %w", err)), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
