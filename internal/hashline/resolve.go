package hashline

import (
	"fmt"
	"strings"
)

// SearchRadius is the half-width of the local window scanned before falling
// back to a whole-file search. Locality is tried first on purpose: widening
// the window raises the chance of false-positive ambiguity on files with
// repeated lines (blank lines, lone braces).
const SearchRadius = 10

// AmbiguousError is returned when more than one line matches a reference's
// fingerprint within the search tier that produced the candidates. The
// resolver never guesses — every candidate is reported so the caller can
// disambiguate by re-reading.
type AmbiguousError struct {
	Ref        Ref
	Candidates []int
}

func (e *AmbiguousError) Error() string {
	nums := make([]string, len(e.Candidates))
	for i, n := range e.Candidates {
		nums[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("ambiguous reference %s: lines %s all match hash %s — re-read the file and pick the line you mean", e.Ref, strings.Join(nums, ", "), e.Ref.Hash)
}

// NotFoundError is returned when no line anywhere in the buffer matches the
// reference's fingerprint: the line was deleted or the file changed.
type NotFoundError struct {
	Ref Ref
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no line matches reference %s: the line was deleted or the file changed — re-read the file to get fresh hashes", e.Ref)
}

// MismatchError is returned when a line inside a resolved range no longer
// matches its indexed fingerprint.
type MismatchError struct {
	Line     int
	Expected string
	Got      string
	Content  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("content changed since read at line %d: expected hash %s, got %s — actual: %q (re-read the file to get fresh hashes)", e.Line, e.Expected, e.Got, e.Content)
}

// Resolve maps a possibly-stale reference to the line's current 1-indexed
// position. The search runs in tiers, returning the first decisive result:
//
//  1. Exact: the index still holds the reference's hash at its stated line.
//  2. Self-modified: the stated line was written by this batch, so the
//     caller is referencing the line it just wrote; trust the number.
//  3. Local window: scan ±SearchRadius lines for the hash. One hit wins,
//     several hits are ambiguous, zero falls through.
//  4. Global: scan the whole buffer. One hit wins, zero is not-found,
//     several are ambiguous.
//
// modified is the set of line numbers written by single-line replaces since
// the last full index rebuild; it may be nil.
func Resolve(ref Ref, lines []string, idx Index, modified map[int]bool) (int, error) {
	if idx[ref.Line] == ref.Hash {
		return ref.Line, nil
	}
	if modified[ref.Line] {
		return ref.Line, nil
	}

	lo := ref.Line - SearchRadius
	if lo < 1 {
		lo = 1
	}
	hi := ref.Line + SearchRadius
	if hi > len(lines) {
		hi = len(lines)
	}
	var candidates []int
	for n := lo; n <= hi; n++ {
		if idx[n] == ref.Hash {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if len(candidates) > 1 {
		return 0, &AmbiguousError{Ref: ref, Candidates: candidates}
	}

	for n := 1; n <= len(lines); n++ {
		if idx[n] == ref.Hash {
			candidates = append(candidates, n)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return 0, &NotFoundError{Ref: ref}
	default:
		return 0, &AmbiguousError{Ref: ref, Candidates: candidates}
	}
}
