package hashline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// refPattern matches a reference token: 1-indexed line number, colon,
// 6 hex chars. The hex part is case-insensitive.
var refPattern = regexp.MustCompile(`^(\d+):([0-9a-fA-F]{6})$`)

// Ref identifies a line by the number and fingerprint it had when read.
// The line number is a hint, not an authoritative address — it may be stale
// by the time the reference is used.
type Ref struct {
	Line int
	Hash string
}

// String renders the reference in its token form, e.g. "12:a1b2c3".
func (r Ref) String() string {
	return fmt.Sprintf("%d:%s", r.Line, r.Hash)
}

// ParseRef parses a "line:hash" token (e.g. "12:a1b2c3") into a Ref.
// The hash is normalized to lowercase.
func ParseRef(s string) (Ref, error) {
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return Ref{}, fmt.Errorf("malformed reference %q: expected \"line:hash\" with a %d-char hex hash, e.g. \"12:a1b2c3\"", s, HashLen)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return Ref{}, fmt.Errorf("malformed reference %q: line number must be >= 1", s)
	}
	return Ref{Line: n, Hash: strings.ToLower(m[2])}, nil
}
