// Package edits applies ordered batches of hash-anchored operations to a
// file. Each operation's line references are resolved against the in-memory
// buffer as already mutated by earlier operations in the same batch, so
// references recorded before the batch stay valid while line numbers shift.
// A batch is all-or-nothing: any failure aborts before the file is written.
package edits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veldt/hashedit/internal/hashline"
)

// structuralPad widens the affected bounds around inserts and deletes, since
// every later line number shifted.
const structuralPad = 2

// Options controls batch application.
type Options struct {
	// Context is the number of unchanged lines shown on each side of the
	// affected span in the result region.
	Context int
}

// Result summarizes a successfully applied batch.
type Result struct {
	Path       string
	OpsApplied int
	LineCount  int    // line count of the final buffer
	Region     Region // affected span with fresh reference tokens
	Diff       string // unified diff of the whole change; empty if no-op
}

// engine holds the mutable state of one batch: the line buffer, its hash
// index, the set of lines single-line replaces wrote since the last full
// rebuild, and the running affected bounds.
type engine struct {
	lines    []string
	idx      hashline.Index
	modified map[int]bool
	minA     int // 0 = nothing touched yet
	maxA     int
}

func newEngine(lines []string) *engine {
	return &engine{
		lines:    lines,
		idx:      hashline.BuildIndex(lines),
		modified: make(map[int]bool),
	}
}

// Apply reads the file, applies every operation in order, and writes the
// result back atomically. On any error the file is left untouched: all
// mutation happens in memory and the write only occurs after the last
// operation succeeds. Cancellation is honored at entry and before each
// operation.
func Apply(ctx context.Context, path string, ops []Op, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, errors.New("no edit operations given")
	}

	before, trailing, err := readLines(path)
	if err != nil {
		return nil, err
	}
	e := newEngine(append([]string{}, before...))

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := op.validate(); err != nil {
			return nil, fmt.Errorf("edit %d: %w", i+1, err)
		}
		if err := e.apply(op); err != nil {
			return nil, fmt.Errorf("edit %d (%s): %w", i+1, op.name(), err)
		}
	}

	beforeText := joinLines(before, trailing)
	afterText := joinLines(e.lines, trailing)
	if err := writeFileAtomic(path, []byte(afterText)); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	return &Result{
		Path:       path,
		OpsApplied: len(ops),
		LineCount:  len(e.lines),
		Region:     buildRegion(e.lines, e.minA, e.maxA, opts.Context),
		Diff:       unifiedDiff(path, beforeText, afterText),
	}, nil
}

func (e *engine) apply(op Op) error {
	switch {
	case op.ReplaceLine != nil:
		return e.replaceLine(op.ReplaceLine)
	case op.ReplaceRange != nil:
		return e.replaceRange(op.ReplaceRange)
	case op.InsertAfter != nil:
		return e.insertAfter(op.InsertAfter)
	case op.DeleteLine != nil:
		return e.deleteLine(op.DeleteLine)
	case op.DeleteRange != nil:
		return e.deleteRange(op.DeleteRange)
	}
	return errors.New("no operation variant set")
}

// resolveTok parses and resolves one reference token against current state.
func (e *engine) resolveTok(tok string) (int, error) {
	ref, err := hashline.ParseRef(tok)
	if err != nil {
		return 0, err
	}
	n, err := hashline.Resolve(ref, e.lines, e.idx, e.modified)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > len(e.lines) {
		return 0, fmt.Errorf("reference %s resolved to line %d, outside the file (1-%d)", ref, n, len(e.lines))
	}
	return n, nil
}

// resolveRange resolves a start/end token pair and checks their order.
func (e *engine) resolveRange(startTok, endTok string) (int, int, error) {
	start, err := e.resolveTok(startTok)
	if err != nil {
		return 0, 0, fmt.Errorf("start anchor: %w", err)
	}
	end, err := e.resolveTok(endTok)
	if err != nil {
		return 0, 0, fmt.Errorf("end anchor: %w", err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("range end (line %d) is before range start (line %d)", end, start)
	}
	return start, end, nil
}

// verifyRange re-checks every line of a resolved range against the index.
// The range anchors resolved structurally, but interior lines may have been
// altered out of band; lines this batch itself wrote are exempt.
func (e *engine) verifyRange(start, end int) error {
	for n := start; n <= end; n++ {
		if e.modified[n] {
			continue
		}
		got := hashline.LineHash(e.lines[n-1])
		if want := e.idx[n]; got != want {
			return &hashline.MismatchError{Line: n, Expected: want, Got: got, Content: e.lines[n-1]}
		}
	}
	return nil
}

// rebuild recomputes the index from the current buffer and clears the
// modified set. Required after any operation that changes the line count.
func (e *engine) rebuild() {
	e.idx = hashline.BuildIndex(e.lines)
	e.modified = make(map[int]bool)
}

// touch widens the running affected bounds. Clamping to the final buffer
// happens when the region is built.
func (e *engine) touch(lo, hi int) {
	if lo < 1 {
		lo = 1
	}
	if e.minA == 0 || lo < e.minA {
		e.minA = lo
	}
	if hi > e.maxA {
		e.maxA = hi
	}
}

func (e *engine) replaceLine(op *ReplaceLine) error {
	if strings.Contains(op.NewText, "\n") {
		return errors.New("new_text must be a single line — use replace_range to change the line count")
	}
	n, err := e.resolveTok(op.LineHash)
	if err != nil {
		return err
	}
	e.lines[n-1] = op.NewText
	e.modified[n] = true
	e.idx.Patch(n, op.NewText)
	e.touch(n, n)
	return nil
}

func (e *engine) replaceRange(op *ReplaceRange) error {
	if len(op.NewLines) == 0 {
		return errors.New("new_lines must not be empty — use delete_range to remove lines")
	}
	start, end, err := e.resolveRange(op.StartHash, op.EndHash)
	if err != nil {
		return err
	}
	if err := e.verifyRange(start, end); err != nil {
		return err
	}

	out := make([]string, 0, len(e.lines)-(end-start+1)+len(op.NewLines))
	out = append(out, e.lines[:start-1]...)
	out = append(out, op.NewLines...)
	out = append(out, e.lines[end:]...)
	e.lines = out

	e.rebuild()
	e.touch(start-structuralPad, start+len(op.NewLines)-1+structuralPad)
	return nil
}

func (e *engine) insertAfter(op *InsertAfter) error {
	if len(op.NewLines) == 0 {
		return errors.New("new_lines must not be empty")
	}
	n := 0 // empty anchor inserts at the top of the file
	if op.LineHash != "" {
		var err error
		n, err = e.resolveTok(op.LineHash)
		if err != nil {
			return fmt.Errorf("after anchor: %w", err)
		}
	}

	out := make([]string, 0, len(e.lines)+len(op.NewLines))
	out = append(out, e.lines[:n]...)
	out = append(out, op.NewLines...)
	out = append(out, e.lines[n:]...)
	e.lines = out

	e.rebuild()
	e.touch(n+1-structuralPad, n+len(op.NewLines)+structuralPad)
	return nil
}

func (e *engine) deleteLine(op *DeleteLine) error {
	n, err := e.resolveTok(op.LineHash)
	if err != nil {
		return err
	}

	out := make([]string, 0, len(e.lines)-1)
	out = append(out, e.lines[:n-1]...)
	out = append(out, e.lines[n:]...)
	e.lines = out

	e.rebuild()
	e.touchDeletion(n)
	return nil
}

func (e *engine) deleteRange(op *DeleteRange) error {
	start, end, err := e.resolveRange(op.StartHash, op.EndHash)
	if err != nil {
		return err
	}
	if err := e.verifyRange(start, end); err != nil {
		return err
	}

	out := make([]string, 0, len(e.lines)-(end-start+1))
	out = append(out, e.lines[:start-1]...)
	out = append(out, e.lines[end:]...)
	e.lines = out

	e.rebuild()
	e.touchDeletion(start)
	return nil
}

// touchDeletion marks the seam where lines were removed. The deleted lines
// no longer exist, so the bounds cover the join point plus padding.
func (e *engine) touchDeletion(at int) {
	seam := at - 1
	if seam < 1 {
		seam = 1
	}
	e.touch(seam-structuralPad, seam+structuralPad)
}
