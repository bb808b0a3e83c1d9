package edits

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
)

func TestBuildRegionClamping(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name       string
		minA, maxA int
		context    int
		wantStart  int
		wantEnd    int
	}{
		{"middle no context", 3, 3, 0, 3, 3},
		{"middle with context", 3, 3, 1, 2, 4},
		{"context clamped at top", 1, 1, 3, 1, 4},
		{"context clamped at bottom", 5, 5, 3, 2, 5},
		{"padding past the end", 4, 8, 0, 4, 5},
		{"padding before the start", -1, 2, 0, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := buildRegion(lines, tt.minA, tt.maxA, tt.context)
			if r.Start != tt.wantStart || r.End != tt.wantEnd {
				t.Errorf("span %d-%d, want %d-%d", r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
			if len(r.Lines) != tt.wantEnd-tt.wantStart+1 {
				t.Errorf("got %d lines for span %d-%d", len(r.Lines), r.Start, r.End)
			}
		})
	}
}

func TestBuildRegionEmpty(t *testing.T) {
	if r := buildRegion([]string{"a"}, 0, 0, 3); len(r.Lines) != 0 {
		t.Errorf("untouched bounds should yield an empty region: %+v", r)
	}
	if r := buildRegion(nil, 1, 1, 3); len(r.Lines) != 0 {
		t.Errorf("empty buffer should yield an empty region: %+v", r)
	}
}

func TestBuildRegionContextLinesHaveNoToken(t *testing.T) {
	lines := []string{"a", "b", "c"}
	r := buildRegion(lines, 2, 2, 1)

	for _, l := range r.Lines {
		if l.Changed && l.Hash == "" {
			t.Errorf("changed line %d missing fresh token", l.Num)
		}
		if !l.Changed && l.Hash != "" {
			t.Errorf("context line %d should carry no token", l.Num)
		}
	}
}

func TestRegionRenderGolden(t *testing.T) {
	content := "alpha\nbravo\ncharlie\ndelta\necho\nfoxtrot\ngolf\nhotel\nindia\n"
	path := filepath.Join(t.TempDir(), "nato.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Apply(context.Background(), path, []Op{
		{ReplaceLine: &ReplaceLine{LineHash: tok(5, "echo"), NewText: "ECHO"}},
	}, Options{Context: 3})
	if err != nil {
		t.Fatal(err)
	}

	golden.RequireEqual(t, []byte(res.Region.Render()))
}
