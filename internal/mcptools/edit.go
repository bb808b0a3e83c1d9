package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/veldt/hashedit/internal/config"
	"github.com/veldt/hashedit/internal/edits"
	"github.com/veldt/hashedit/internal/hashline"
	"github.com/veldt/hashedit/internal/journal"
	"github.com/veldt/hashedit/internal/mcp"
)

// CreateOp creates a new file with the given content.
type CreateOp struct {
	Content string `json:"content"`
}

// EditArgs represents arguments for the Edit tool. Exactly one of Create or
// Edits must be given.
type EditArgs struct {
	File    string     `json:"file"`
	Create  *CreateOp  `json:"create,omitempty"`
	Edits   []edits.Op `json:"edits,omitempty"`
	Context *int       `json:"context,omitempty"` // Optional: unchanged lines around the affected span (0, 1, or 3)
}

// NewEditTool creates the Edit tool definition.
func NewEditTool() mcp.Tool {
	return mcp.Tool{
		Name: "Edit",
		Description: `Applies a batch of hash-anchored edits to a file, or creates a new file. You MUST Read a file before editing it: every operation anchors to a "linenum:hash" reference token from Read (or from a previous Edit result).
Operations apply in order and each sees the effect of all earlier ones; the batch is all-or-nothing. On success the response shows the affected region with fresh reference tokens — changed lines are marked with * and their new tokens are valid anchors for follow-up edits without re-reading.
If a reference no longer matches (the file changed, or the same content appears on several nearby lines) the whole batch fails; Read the file again for current tokens.`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file": {"type": "string", "description": "Path to the file to edit or create"},
				"create": {
					"type": "object",
					"description": "Create a new file with this content. Fails if the file already exists. Mutually exclusive with edits.",
					"properties": {
						"content": {"type": "string", "description": "Full content of the new file"}
					},
					"required": ["content"]
				},
				"edits": {
					"type": "array",
					"description": "Ordered operations. Each item sets exactly one of replace_line, replace_range, insert_after, delete_line, delete_range.",
					"items": {
						"type": "object",
						"properties": {
							"replace_line": {
								"type": "object",
								"description": "Overwrite one line. new_text must not contain newlines; use replace_range to change the line count.",
								"properties": {
									"line_hash": {"type": "string", "description": "Reference token (linenum:hash) of the line to replace"},
									"new_text":  {"type": "string", "description": "Replacement text for the one line"}
								},
								"required": ["line_hash", "new_text"]
							},
							"replace_range": {
								"type": "object",
								"description": "Replace the inclusive start..end range with new lines.",
								"properties": {
									"start_hash": {"type": "string", "description": "Reference token of the first line to replace"},
									"end_hash":   {"type": "string", "description": "Reference token of the last line to replace"},
									"new_lines":  {"type": "array", "items": {"type": "string"}, "description": "Replacement lines (must be non-empty; use delete_range to remove lines)"}
								},
								"required": ["start_hash", "end_hash", "new_lines"]
							},
							"insert_after": {
								"type": "object",
								"description": "Insert new lines immediately after the anchor line. Omit line_hash to insert at the top of the file.",
								"properties": {
									"line_hash": {"type": "string", "description": "Reference token of the anchor line; omit for top of file"},
									"new_lines": {"type": "array", "items": {"type": "string"}, "description": "Lines to insert"}
								},
								"required": ["new_lines"]
							},
							"delete_line": {
								"type": "object",
								"description": "Delete one line.",
								"properties": {
									"line_hash": {"type": "string", "description": "Reference token of the line to delete"}
								},
								"required": ["line_hash"]
							},
							"delete_range": {
								"type": "object",
								"description": "Delete the inclusive start..end range.",
								"properties": {
									"start_hash": {"type": "string", "description": "Reference token of the first line to delete"},
									"end_hash":   {"type": "string", "description": "Reference token of the last line to delete"}
								},
								"required": ["start_hash", "end_hash"]
							}
						}
					}
				},
				"context": {"type": "integer", "description": "Optional: unchanged lines shown around the affected region (0, 1, or 3)", "enum": [0, 1, 3]}
			},
			"required": ["file"]
		}`),
	}
}

// EditHandler handles Edit tool calls.
type EditHandler struct {
	tracker        *FileReadTracker
	journal        *journal.Journal
	limits         config.LimitsConfig
	contextDefault int
	rootDir        string
	turns          atomic.Int64
}

// NewEditHandler creates a handler for the Edit tool. The journal may be nil
// when undo history is disabled.
func NewEditHandler(tracker *FileReadTracker, jnl *journal.Journal, cfg *config.Config) *EditHandler {
	return &EditHandler{
		tracker:        tracker,
		journal:        jnl,
		limits:         cfg.Limits,
		contextDefault: cfg.Edit.ContextLinesOrDefault(),
	}
}

// SetRootDir overrides the sandbox root (defaults to the working directory).
func (h *EditHandler) SetRootDir(dir string) { h.rootDir = dir }

// Handle implements the mcp.ToolHandler interface.
func (h *EditHandler) Handle(ctx context.Context, arguments json.RawMessage) (*mcp.ToolResult, error) {
	var args EditArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return toolError("Invalid arguments: %v", err), nil
	}
	if args.File == "" {
		return toolError("File path cannot be empty"), nil
	}
	if (args.Create == nil) == (len(args.Edits) == 0) {
		return toolError("Exactly one of create or edits must be given"), nil
	}

	absPath, err := validatePath(args.File, h.rootDir)
	if err != nil {
		return toolError("%v", err), nil
	}

	if args.Create != nil {
		return h.handleCreate(absPath, args.File, args.Create), nil
	}

	if !h.tracker.WasRead(absPath) {
		return toolError("File has not been read yet: Read %s first, the edit anchors come from its output", args.File), nil
	}
	if err := checkFileGate(absPath, h.limits.MaxFileBytesOrDefault()); err != nil {
		return toolError("%v", err), nil
	}

	contextLines := h.contextDefault
	if args.Context != nil {
		switch *args.Context {
		case 0, 1, 3:
			contextLines = *args.Context
		default:
			return toolError("context must be 0, 1, or 3, got %d", *args.Context), nil
		}
	}

	before, err := os.ReadFile(absPath)
	if err != nil {
		return toolError("Failed to read file: %v", err), nil
	}

	res, err := edits.Apply(ctx, absPath, args.Edits, edits.Options{Context: contextLines})
	if err != nil {
		return toolError("%v", err), nil
	}

	h.journal.BeginTurn(h.turns.Add(1))
	h.journal.RecordModify(absPath, before, res.Diff)

	log.Debug().
		Str("file", absPath).
		Int("ops", res.OpsApplied).
		Int("lines", res.LineCount).
		Msg("applied edit batch")

	text := fmt.Sprintf("Edited %s: %d operation(s) applied, file now has %d lines.\nAffected region (lines %d-%d; * marks changed lines, their tokens are fresh anchors):\n\n%s",
		args.File, res.OpsApplied, res.LineCount, res.Region.Start, res.Region.End, res.Region.Render())
	return toolText(text), nil
}

// handleCreate writes a brand new file and returns its tagged content so the
// caller can edit it without a separate Read.
func (h *EditHandler) handleCreate(absPath, displayPath string, op *CreateOp) *mcp.ToolResult {
	if _, err := os.Stat(absPath); err == nil {
		return toolError("File already exists: %s (use edits to modify it)", displayPath)
	} else if !os.IsNotExist(err) {
		return toolError("Failed to stat file: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0750); err != nil {
		return toolError("Failed to create parent directory: %v", err)
	}

	content := op.Content
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(absPath, []byte(content), 0600); err != nil {
		return toolError("Failed to create file: %v", err)
	}

	h.journal.BeginTurn(h.turns.Add(1))
	h.journal.RecordCreate(absPath)
	h.tracker.MarkRead(absPath)

	log.Debug().Str("file", absPath).Msg("created file")

	lines := splitContent(content)
	tagged := hashline.TagLines(lines, 1)
	listing, emitted := renderTagged(tagged, h.limits.MaxOutputLinesOrDefault(), h.limits.MaxOutputBytesOrDefault())

	text := fmt.Sprintf("Created %s (%d lines):\n\n%s", displayPath, len(lines), listing)
	if emitted < len(tagged) {
		text += "\n\n" + truncationNotice(tagged, emitted)
	}
	return toolText(text)
}

// LastTurn reports the id of the most recent edit turn, for Undo.
func (h *EditHandler) LastTurn() int64 { return h.turns.Load() }
