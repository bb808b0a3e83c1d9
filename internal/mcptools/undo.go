package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veldt/hashedit/internal/journal"
	"github.com/veldt/hashedit/internal/mcp"
)

// NewUndoTool creates the Undo tool definition.
func NewUndoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "Undo",
		Description: "Reverts the most recent Edit call in this session. Modified files are restored to their pre-edit content; created files are removed. Call repeatedly to walk further back.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}
}

// UndoHandler handles Undo tool calls.
type UndoHandler struct {
	journal *journal.Journal
	tracker *FileReadTracker
}

// NewUndoHandler creates a handler for the Undo tool. The journal may be nil
// when undo history is disabled.
func NewUndoHandler(jnl *journal.Journal, tracker *FileReadTracker) *UndoHandler {
	return &UndoHandler{journal: jnl, tracker: tracker}
}

// Handle implements the mcp.ToolHandler interface.
func (h *UndoHandler) Handle(_ context.Context, _ json.RawMessage) (*mcp.ToolResult, error) {
	turn := h.journal.LatestTurn()
	if turn == 0 {
		return toolError("Nothing to undo"), nil
	}

	affected, err := h.journal.Undo(turn)
	if err != nil {
		return toolError("Undo failed: %v", err), nil
	}
	h.journal.DeleteTurn(turn)

	if len(affected) == 0 {
		return toolError("Nothing to undo"), nil
	}
	for _, path := range affected {
		h.tracker.Forget(path)
	}
	return toolText(fmt.Sprintf("Reverted %d file(s):\n%s\n\nRead before editing them again: the old reference tokens are stale.",
		len(affected), strings.Join(affected, "\n"))), nil
}
