package edits

import (
	"fmt"
	"strings"

	"github.com/veldt/hashedit/internal/hashline"
)

// RegionLine is one line of the affected-region report.
type RegionLine struct {
	Num     int
	Hash    string // fresh fingerprint; empty for context lines
	Text    string
	Changed bool
}

// Region is the span of lines touched by a batch, re-hashed against the
// final buffer. Changed lines carry fresh reference tokens for follow-up
// edits; context lines are shown without tokens since their content is
// unchanged.
type Region struct {
	Start int // first line shown, 1-indexed; 0 when empty
	End   int // last line shown
	Lines []RegionLine
}

// buildRegion computes the report span from the engine's affected bounds,
// clamped to the final buffer, with context unchanged lines on each side.
func buildRegion(lines []string, minA, maxA, context int) Region {
	if minA == 0 || len(lines) == 0 {
		return Region{}
	}
	if minA < 1 {
		minA = 1
	}
	if maxA > len(lines) {
		maxA = len(lines)
	}
	if minA > len(lines) {
		minA = len(lines)
	}
	if maxA < minA {
		maxA = minA
	}

	lo := minA - context
	if lo < 1 {
		lo = 1
	}
	hi := maxA + context
	if hi > len(lines) {
		hi = len(lines)
	}

	region := Region{Start: lo, End: hi}
	for n := lo; n <= hi; n++ {
		line := RegionLine{Num: n, Text: lines[n-1]}
		if n >= minA && n <= maxA {
			line.Changed = true
			line.Hash = hashline.LineHash(lines[n-1])
		}
		region.Lines = append(region.Lines, line)
	}
	return region
}

// Render formats the region for the tool response. Changed lines get a "*"
// marker and a fresh token; context lines get the line number only.
func (r Region) Render() string {
	var b strings.Builder
	for i, l := range r.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l.Changed {
			fmt.Fprintf(&b, "* %d:%s|%s", l.Num, l.Hash, l.Text)
		} else {
			fmt.Fprintf(&b, "  %d|%s", l.Num, l.Text)
		}
	}
	return b.String()
}
