// Package hashline provides content-addressed line references for reliable
// file editing.
//
// Each line gets a short hex fingerprint derived from its content. The LLM
// references lines as "linenum:hash" tokens, so it never needs to reproduce
// old content verbatim. Because the fingerprint ignores position, a reference
// stays usable even after earlier edits shift line numbers — the resolver
// finds the line's current position, or fails loudly when it can't do so
// unambiguously.
package hashline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashLen is the number of hex characters per line fingerprint (3 bytes = 6 hex chars).
const HashLen = 6

// LineHash computes a short content fingerprint for a single line.
// It depends only on the line's text, never on its position or the file.
func LineHash(line string) string {
	h := sha256.Sum256([]byte(line))
	return hex.EncodeToString(h[:HashLen/2])
}

// TaggedLine represents a line with its number and content fingerprint.
type TaggedLine struct {
	Num     int    // 1-indexed line number
	Hash    string // 6-char hex fingerprint
	Content string // raw line content
}

// Tag formats a tagged line as "num:hash|content".
func (t TaggedLine) Tag() string {
	return fmt.Sprintf("%d:%s|%s", t.Num, t.Hash, t.Content)
}

// TagLines tags every line with its number and fingerprint.
// If startLine > 0, numbering begins at startLine (1-indexed).
func TagLines(lines []string, startLine int) []TaggedLine {
	if startLine <= 0 {
		startLine = 1
	}
	tagged := make([]TaggedLine, len(lines))
	for i, line := range lines {
		tagged[i] = TaggedLine{
			Num:     startLine + i,
			Hash:    LineHash(line),
			Content: line,
		}
	}
	return tagged
}

// FormatTagged formats tagged lines into the string returned to the LLM.
func FormatTagged(tagged []TaggedLine) string {
	var b strings.Builder
	for i, t := range tagged {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Tag())
	}
	return b.String()
}
