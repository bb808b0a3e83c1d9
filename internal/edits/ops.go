package edits

import (
	"errors"
)

// Op is one edit operation. Exactly one variant must be set. Operations in a
// batch are applied in order, and each one sees the cumulative effect of all
// earlier operations in the same batch.
type Op struct {
	ReplaceLine  *ReplaceLine  `json:"replace_line,omitempty"`
	ReplaceRange *ReplaceRange `json:"replace_range,omitempty"`
	InsertAfter  *InsertAfter  `json:"insert_after,omitempty"`
	DeleteLine   *DeleteLine   `json:"delete_line,omitempty"`
	DeleteRange  *DeleteRange  `json:"delete_range,omitempty"`
}

// ReplaceLine overwrites a single line's text. The new text must not contain
// newlines; use ReplaceRange to change the line count.
type ReplaceLine struct {
	LineHash string `json:"line_hash"` // reference token from Read output
	NewText  string `json:"new_text"`  // replacement text for the one line
}

// ReplaceRange replaces the inclusive start..end range with new lines.
type ReplaceRange struct {
	StartHash string   `json:"start_hash"` // reference for the first line to replace
	EndHash   string   `json:"end_hash"`   // reference for the last line to replace
	NewLines  []string `json:"new_lines"`  // replacement lines
}

// InsertAfter inserts new lines immediately after the anchored line.
// An empty LineHash anchors at the top of the file.
type InsertAfter struct {
	LineHash string   `json:"line_hash,omitempty"` // reference for the anchor line; "" = top of file
	NewLines []string `json:"new_lines"`           // lines to insert
}

// DeleteLine removes a single line.
type DeleteLine struct {
	LineHash string `json:"line_hash"` // reference for the line to delete
}

// DeleteRange removes the inclusive start..end range.
type DeleteRange struct {
	StartHash string `json:"start_hash"` // reference for the first line to delete
	EndHash   string `json:"end_hash"`   // reference for the last line to delete
}

// name returns the set variant's wire name, for error prefixes.
func (o Op) name() string {
	switch {
	case o.ReplaceLine != nil:
		return "replace_line"
	case o.ReplaceRange != nil:
		return "replace_range"
	case o.InsertAfter != nil:
		return "insert_after"
	case o.DeleteLine != nil:
		return "delete_line"
	case o.DeleteRange != nil:
		return "delete_range"
	}
	return "edit"
}

// validate ensures exactly one variant is set.
func (o Op) validate() error {
	n := 0
	for _, set := range []bool{
		o.ReplaceLine != nil,
		o.ReplaceRange != nil,
		o.InsertAfter != nil,
		o.DeleteLine != nil,
		o.DeleteRange != nil,
	} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of replace_line, replace_range, insert_after, delete_line, delete_range must be set")
	}
	return nil
}
