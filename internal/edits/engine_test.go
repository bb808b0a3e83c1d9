package edits

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veldt/hashedit/internal/hashline"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// tok builds a reference token for the given line text as it was at read time.
func tok(line int, text string) string {
	return hashline.Ref{Line: line, Hash: hashline.LineHash(text)}.String()
}

func TestApplyReplaceLine(t *testing.T) {
	path := writeTestFile(t, "aaa\nbbb\nccc\n")

	res, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(2, "bbb"), NewText: "BBB"}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "aaa\nBBB\nccc\n" {
		t.Errorf("unexpected content: %q", got)
	}
	if res.LineCount != 3 || res.OpsApplied != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestApplyRoundTrip(t *testing.T) {
	// The fresh token reported for the replaced line carries the new
	// content's fingerprint, so a follow-up edit can use it directly.
	path := writeTestFile(t, "aaa\nbbb\nccc\n")

	res, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(2, "bbb"), NewText: "BBB"}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var changed *RegionLine
	for i := range res.Region.Lines {
		if res.Region.Lines[i].Num == 2 {
			changed = &res.Region.Lines[i]
		}
	}
	if changed == nil || !changed.Changed {
		t.Fatalf("line 2 missing from region: %+v", res.Region)
	}
	if changed.Hash != hashline.LineHash("BBB") {
		t.Errorf("fresh token hash %s, want %s", changed.Hash, hashline.LineHash("BBB"))
	}

	// And the token works for a second batch.
	second := hashline.Ref{Line: 2, Hash: changed.Hash}.String()
	if _, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: second, NewText: "bbb2"}},
	}, Options{}); err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, path); got != "aaa\nbbb2\nccc\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyRangeReplaceWithShift(t *testing.T) {
	// Replace lines 2-3 with three lines, then delete the line that was
	// line 4 at read time. The delete reference must resolve through the
	// shift to the line's new position.
	path := writeTestFile(t, "a\nb\nc\nd\n")

	_, err := Apply(context.Background(), path, []Op{
		{ReplaceRange: &ReplaceRange{
			StartHash: tok(2, "b"),
			EndHash:   tok(3, "c"),
			NewLines:  []string{"x", "y", "z"},
		}},
		{DeleteLine: &DeleteLine{LineHash: tok(4, "d")}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "a\nx\ny\nz\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyInsertAfterLastLine(t *testing.T) {
	path := writeTestFile(t, "aaa\nbbb\n")

	_, err := Apply(context.Background(), path, []Op{
		{InsertAfter: &InsertAfter{LineHash: tok(2, "bbb"), NewLines: []string{"ccc", "ddd"}}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "aaa\nbbb\nccc\nddd\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyInsertAtTopOfFile(t *testing.T) {
	path := writeTestFile(t, "aaa\n")

	_, err := Apply(context.Background(), path, []Op{
		{InsertAfter: &InsertAfter{NewLines: []string{"header"}}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "header\naaa\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyDeleteRange(t *testing.T) {
	path := writeTestFile(t, "a\nb\nc\nd\ne\n")

	_, err := Apply(context.Background(), path, []Op{
		{DeleteRange: &DeleteRange{StartHash: tok(2, "b"), EndHash: tok(4, "d")}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "a\ne\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyAtomicOnFailure(t *testing.T) {
	// One valid operation followed by an unresolvable one: the file must
	// stay byte-for-byte unchanged on disk.
	const original = "aaa\nbbb\nccc\n"
	path := writeTestFile(t, original)

	_, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(1, "aaa"), NewText: "AAA"}},
		{DeleteLine: &DeleteLine{LineHash: "2:ffffff"}},
	}, Options{})
	if err == nil {
		t.Fatal("expected failure")
	}
	var nf *hashline.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	if got := readBack(t, path); got != original {
		t.Errorf("file changed despite failed batch: %q", got)
	}
}

func TestApplyAmbiguousAborts(t *testing.T) {
	const original = "dup\nx\ndup\ny\n"
	path := writeTestFile(t, original)

	// Line 2's reference is stale (hash of "dup" stated at line 2), and
	// two candidates sit in the window.
	_, err := Apply(context.Background(), path, []Op{
		{DeleteLine: &DeleteLine{LineHash: tok(2, "dup")}},
	}, Options{})
	var ambig *hashline.AmbiguousError
	if !errors.As(err, &ambig) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}

	if got := readBack(t, path); got != original {
		t.Errorf("file changed despite ambiguity: %q", got)
	}
}

func TestApplyMalformedReference(t *testing.T) {
	path := writeTestFile(t, "aaa\n")

	for _, bad := range []string{"nope", "1:zz", "1:a1b2", ""} {
		_, err := Apply(context.Background(), path, []Op{
			{DeleteLine: &DeleteLine{LineHash: bad}},
		}, Options{})
		if err == nil {
			t.Errorf("token %q should be rejected", bad)
		}
	}
}

func TestApplyReplaceLineRejectsNewlines(t *testing.T) {
	path := writeTestFile(t, "aaa\nbbb\n")

	_, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(1, "aaa"), NewText: "two\nlines"}},
	}, Options{})
	if err == nil || !strings.Contains(err.Error(), "replace_range") {
		t.Errorf("expected single-line error pointing at replace_range, got %v", err)
	}
}

func TestApplyRangeEndBeforeStart(t *testing.T) {
	path := writeTestFile(t, "a\nb\nc\n")

	_, err := Apply(context.Background(), path, []Op{
		{DeleteRange: &DeleteRange{StartHash: tok(3, "c"), EndHash: tok(1, "a")}},
	}, Options{})
	if err == nil || !strings.Contains(err.Error(), "before") {
		t.Errorf("expected range-order error, got %v", err)
	}
}

func TestApplySingleLineReplacesThenRange(t *testing.T) {
	// Two single-line replaces leave entries in the modified set; a range
	// op referencing those same lines must still verify cleanly because
	// modified lines are exempt from interior re-verification.
	path := writeTestFile(t, "a\nb\nc\nd\n")

	_, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(2, "b"), NewText: "B"}},
		{ReplaceLine: &ReplaceLine{LineHash: tok(3, "c"), NewText: "C"}},
		{DeleteRange: &DeleteRange{StartHash: tok(2, "b"), EndHash: tok(3, "c")}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "a\nd\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyCancelledContext(t *testing.T) {
	const original = "aaa\n"
	path := writeTestFile(t, original)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Apply(ctx, path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(1, "aaa"), NewText: "AAA"}},
	}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if got := readBack(t, path); got != original {
		t.Errorf("file changed despite cancellation: %q", got)
	}
}

func TestApplyEmptyBatch(t *testing.T) {
	path := writeTestFile(t, "aaa\n")
	if _, err := Apply(context.Background(), path, nil, Options{}); err == nil {
		t.Fatal("empty batch should fail")
	}
}

func TestApplyOpVariantValidation(t *testing.T) {
	path := writeTestFile(t, "aaa\n")

	// No variant set
	if _, err := Apply(context.Background(), path, []Op{{}}, Options{}); err == nil {
		t.Error("empty op should fail")
	}

	// Two variants set
	op := Op{
		DeleteLine:  &DeleteLine{LineHash: tok(1, "aaa")},
		InsertAfter: &InsertAfter{LineHash: tok(1, "aaa"), NewLines: []string{"x"}},
	}
	if _, err := Apply(context.Background(), path, []Op{op}, Options{}); err == nil {
		t.Error("doubled op should fail")
	}
}

func TestApplyPreservesMissingTrailingNewline(t *testing.T) {
	path := writeTestFile(t, "aaa\nbbb")

	_, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(1, "aaa"), NewText: "AAA"}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readBack(t, path); got != "AAA\nbbb" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestApplyDiffAndRegion(t *testing.T) {
	path := writeTestFile(t, "a\nb\nc\nd\ne\n")

	res, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(3, "c"), NewText: "C"}},
	}, Options{Context: 1})
	if err != nil {
		t.Fatal(err)
	}

	if res.Diff == "" || !strings.Contains(res.Diff, "+C") {
		t.Errorf("diff missing change: %q", res.Diff)
	}
	if res.Region.Start != 2 || res.Region.End != 4 {
		t.Errorf("region span %d-%d, want 2-4", res.Region.Start, res.Region.End)
	}
	for _, l := range res.Region.Lines {
		if l.Num == 3 && !l.Changed {
			t.Error("line 3 should be marked changed")
		}
		if l.Num != 3 && l.Changed {
			t.Errorf("line %d should be context", l.Num)
		}
	}
}
