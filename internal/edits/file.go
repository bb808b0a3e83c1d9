package edits

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// readLines reads a file into lines (without trailing newlines) and reports
// whether the file ended with a newline, so the write can preserve it.
func readLines(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)
	if content == "" {
		return nil, false, nil
	}
	trailing := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if trailing {
		lines = lines[:len(lines)-1]
	}
	return lines, trailing, nil
}

// joinLines is the inverse of readLines.
func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		return ""
	}
	s := strings.Join(lines, "\n")
	if trailing {
		s += "\n"
	}
	return s
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it into place, so a reader never observes a partial write. The
// original file's mode is preserved when it exists.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".hashedit-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// unifiedDiff renders the whole change as a unified diff, or "" for a no-op.
func unifiedDiff(path, before, after string) string {
	if before == after {
		return ""
	}
	diffs := myers.ComputeEdits(span.URIFromPath(path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(path, path, before, diffs))
}
