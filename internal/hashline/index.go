package hashline

// Index maps every current 1-indexed line number to that line's fingerprint.
// It is a derived, disposable projection of the line buffer: rebuild it after
// any mutation that changes line count, patch it only for a same-count
// single-line replace. Stale entries are unsafe to consult.
type Index map[int]string

// BuildIndex computes the full index for the given line buffer.
func BuildIndex(lines []string) Index {
	idx := make(Index, len(lines))
	for i, line := range lines {
		idx[i+1] = LineHash(line)
	}
	return idx
}

// Patch updates the single entry for line n after its text changed in place.
func (idx Index) Patch(n int, text string) {
	idx[n] = LineHash(text)
}
