package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veldt/hashedit/internal/config"
	"github.com/veldt/hashedit/internal/hashline"
	"github.com/veldt/hashedit/internal/mcp"
)

// defaultRadius is the half-window used by center mode when radius is unset.
const defaultRadius = 10

// ReadArgs represents arguments for the Read tool. Center/radius mode
// overrides offset/limit when both are given.
type ReadArgs struct {
	File   string `json:"file"`
	Offset int    `json:"offset,omitempty"` // Optional: first line to show (1-indexed)
	Limit  int    `json:"limit,omitempty"`  // Optional: max lines to show
	Center int    `json:"center,omitempty"` // Optional: center line of a radius window
	Radius int    `json:"radius,omitempty"` // Optional: half-window around center (default 10)
}

// NewReadTool creates the Read tool definition.
func NewReadTool() mcp.Tool {
	return mcp.Tool{
		Name: "Read",
		Description: `Reads a file and returns hashline-tagged content. Each line is returned as "linenum:hash|content". You MUST Read a file before editing it with Edit — the hashes are your edit anchors.
Use offset/limit for a line window, or center/radius to see around one line (center wins when both are given).`,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file":   {"type": "string", "description": "Path to the file to read"},
				"offset": {"type": "integer", "description": "Optional: first line to show (1-indexed, inclusive)"},
				"limit":  {"type": "integer", "description": "Optional: maximum number of lines to show"},
				"center": {"type": "integer", "description": "Optional: center line of a window; overrides offset/limit"},
				"radius": {"type": "integer", "description": "Optional: lines shown on each side of center (default 10)"}
			},
			"required": ["file"]
		}`),
	}
}

// ReadHandler handles Read tool calls.
type ReadHandler struct {
	tracker *FileReadTracker
	limits  config.LimitsConfig
	rootDir string
}

// NewReadHandler creates a handler for the Read tool.
func NewReadHandler(tracker *FileReadTracker, limits config.LimitsConfig) *ReadHandler {
	return &ReadHandler{tracker: tracker, limits: limits}
}

// SetRootDir overrides the sandbox root (defaults to the working directory).
func (h *ReadHandler) SetRootDir(dir string) { h.rootDir = dir }

// Handle implements the mcp.ToolHandler interface.
func (h *ReadHandler) Handle(_ context.Context, arguments json.RawMessage) (*mcp.ToolResult, error) {
	var args ReadArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return toolError("Invalid arguments: %v", err), nil
	}
	if args.File == "" {
		return toolError("File path cannot be empty"), nil
	}

	absPath, err := validatePath(args.File, h.rootDir)
	if err != nil {
		return toolError("%v", err), nil
	}
	if err := checkFileGate(absPath, h.limits.MaxFileBytesOrDefault()); err != nil {
		return toolError("%v", err), nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return toolError("Failed to read file: %v", err), nil
	}

	h.tracker.MarkRead(absPath)

	lines := splitContent(string(content))
	start, end, err := selectWindow(len(lines), args)
	if err != nil {
		return toolError("%v", err), nil
	}

	tagged := hashline.TagLines(lines[start-1:end], start)
	listing, emitted := renderTagged(tagged, h.limits.MaxOutputLinesOrDefault(), h.limits.MaxOutputBytesOrDefault())

	header := fmt.Sprintf("Read %s (%s, lines %d-%d of %d)", args.File, DetectLanguage(absPath), start, end, len(lines))
	if len(lines) == 0 {
		header = fmt.Sprintf("Read %s (empty file)", args.File)
	}

	text := header + ":\n\n" + listing
	if emitted < len(tagged) {
		text += "\n\n" + truncationNotice(tagged, emitted)
	}
	return toolText(text), nil
}

// splitContent splits file content into lines, without a phantom final line
// for a trailing newline.
func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if strings.HasSuffix(content, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// selectWindow resolves the requested window into a 1-indexed inclusive
// start/end span. Center/radius mode wins over offset/limit.
func selectWindow(total int, args ReadArgs) (int, int, error) {
	if total == 0 {
		if args.Center > 0 || args.Offset > 0 {
			return 0, 0, fmt.Errorf("file is empty")
		}
		return 1, 0, nil
	}

	if args.Center > 0 {
		if args.Center > total {
			return 0, 0, fmt.Errorf("center line %d out of range (file has %d lines)", args.Center, total)
		}
		radius := args.Radius
		if radius <= 0 {
			radius = defaultRadius
		}
		start := args.Center - radius
		if start < 1 {
			start = 1
		}
		end := args.Center + radius
		if end > total {
			end = total
		}
		return start, end, nil
	}

	start := args.Offset
	if start <= 0 {
		start = 1
	}
	if start > total {
		return 0, 0, fmt.Errorf("offset %d out of range (file has %d lines)", start, total)
	}
	end := total
	if args.Limit > 0 && start+args.Limit-1 < end {
		end = start + args.Limit - 1
	}
	return start, end, nil
}

// renderTagged formats tagged lines, stopping at whichever output cap is hit
// first. Returns the listing and the number of lines emitted.
func renderTagged(tagged []hashline.TaggedLine, maxLines, maxBytes int) (string, int) {
	var b strings.Builder
	emitted := 0
	for _, tl := range tagged {
		tag := tl.Tag()
		if emitted >= maxLines || b.Len()+len(tag)+1 > maxBytes {
			break
		}
		if emitted > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(tag)
		emitted++
	}
	return b.String(), emitted
}

// truncationNotice names how much was omitted and how to continue.
func truncationNotice(tagged []hashline.TaggedLine, emitted int) string {
	omitted := len(tagged) - emitted
	return fmt.Sprintf("[output truncated: %d of %d lines shown, %d omitted — continue with offset=%d]",
		emitted, len(tagged), omitted, tagged[emitted].Num)
}
