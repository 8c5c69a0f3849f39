package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/toolgate-mcp-server/internal/execctx"
	"github.com/codex-k8s/toolgate-mcp-server/internal/protocol"
)

// Bind adapts a typed function into a Handler by decoding the arguments into In.
func Bind[In any](fn func(ctx context.Context, in In, ec execctx.Context) (*mcp.CallToolResult, error)) Handler {
	return func(ctx context.Context, args json.RawMessage, ec execctx.Context) (*mcp.CallToolResult, error) {
		var in In
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, protocol.Wrap(protocol.KindInvalidParams, fmt.Sprintf("decode arguments: %v", err), ErrInvalidInput)
			}
		}
		return fn(ctx, in, ec)
	}
}

// Structured builds a result with one text block and structured content.
func Structured(text string, structured any) *mcp.CallToolResult {
	result := &mcp.CallToolResult{StructuredContent: structured}
	if text != "" {
		result.Content = []mcp.Content{&mcp.TextContent{Text: text}}
	}
	return result
}
