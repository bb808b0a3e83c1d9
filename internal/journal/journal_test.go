package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestUndoModify(t *testing.T) {
	j := openTestJournal(t)
	j.BeginTurn(1)

	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	j.RecordModify(path, []byte("original"), "")

	affected, err := j.Undo(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(affected) != 1 || affected[0] != path {
		t.Errorf("affected: %v", affected)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Errorf("content after undo: %q", got)
	}
}

func TestUndoCreate(t *testing.T) {
	j := openTestJournal(t)
	j.BeginTurn(1)

	path := filepath.Join(t.TempDir(), "new.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	j.RecordCreate(path)

	if _, err := j.Undo(1); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("created file should be removed by undo")
	}
}

func TestFirstSnapshotPerTurnWins(t *testing.T) {
	j := openTestJournal(t)
	j.BeginTurn(1)

	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("third"), 0644); err != nil {
		t.Fatal(err)
	}
	j.RecordModify(path, []byte("first"), "")
	j.RecordModify(path, []byte("second"), "")

	if _, err := j.Undo(1); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "first" {
		t.Errorf("undo should restore the first snapshot, got %q", got)
	}
}

func TestRecordOutsideTurnIsNoop(t *testing.T) {
	j := openTestJournal(t)

	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	j.RecordModify(path, []byte("original"), "")

	affected, err := j.Undo(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(affected) != 0 {
		t.Errorf("nothing should be recorded outside a turn: %v", affected)
	}
}

func TestUndoScopedToTurn(t *testing.T) {
	j := openTestJournal(t)
	dir := t.TempDir()

	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	for _, p := range []string{pathA, pathB} {
		if err := os.WriteFile(p, []byte("edited"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	j.BeginTurn(1)
	j.RecordModify(pathA, []byte("turn1"), "")
	j.BeginTurn(2)
	j.RecordModify(pathB, []byte("turn2"), "")

	if _, err := j.Undo(1); err != nil {
		t.Fatal(err)
	}

	gotA, _ := os.ReadFile(pathA)
	gotB, _ := os.ReadFile(pathB)
	if string(gotA) != "turn1" {
		t.Errorf("turn 1 file not restored: %q", gotA)
	}
	if string(gotB) != "edited" {
		t.Errorf("turn 2 file should be untouched: %q", gotB)
	}
}

func TestDeleteTurn(t *testing.T) {
	j := openTestJournal(t)
	j.BeginTurn(1)

	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	j.RecordModify(path, []byte("original"), "")
	j.DeleteTurn(1)

	affected, err := j.Undo(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(affected) != 0 {
		t.Errorf("deleted turn should have no records: %v", affected)
	}
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.BeginTurn(1)
	j.RecordModify("/nope", nil, "")
	j.RecordCreate("/nope")
	j.DeleteTurn(1)
	if got := j.TurnID(); got != 0 {
		t.Errorf("nil journal turn: %d", got)
	}
	if _, err := j.Undo(1); err != nil {
		t.Errorf("nil journal undo: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("nil journal close: %v", err)
	}
}
