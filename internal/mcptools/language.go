package mcptools

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// DetectLanguage returns a lowercase language name for the given file path,
// or "text" when no lexer matches.
func DetectLanguage(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return "text"
	}
	return strings.ToLower(lexer.Config().Name)
}
