package mcptools

import (
	"context"
	"encoding/json"

	"github.com/atotto/clipboard"

	"github.com/veldt/hashedit/internal/mcp"
)

// CopyArgs represents arguments for the Copy tool.
type CopyArgs struct {
	Text string `json:"text"`
}

// NewCopyTool creates the Copy tool definition.
func NewCopyTool() mcp.Tool {
	return mcp.Tool{
		Name:        "Copy",
		Description: "Copies text to the system clipboard, for handing a snippet or message back to the user.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "Text to place on the clipboard"}
			},
			"required": ["text"]
		}`),
	}
}

// CopyHandler handles Copy tool calls.
type CopyHandler struct{}

// NewCopyHandler creates a handler for the Copy tool.
func NewCopyHandler() *CopyHandler { return &CopyHandler{} }

// Handle implements the mcp.ToolHandler interface.
func (h *CopyHandler) Handle(_ context.Context, arguments json.RawMessage) (*mcp.ToolResult, error) {
	var args CopyArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return toolError("Invalid arguments: %v", err), nil
	}
	if args.Text == "" {
		return toolError("Text cannot be empty"), nil
	}
	if err := clipboard.WriteAll(args.Text); err != nil {
		return toolError("Failed to write to clipboard: %v", err), nil
	}
	return toolText("Copied to clipboard."), nil
}
