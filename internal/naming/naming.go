// Package naming maps between session filenames and their structured
// identity. The filename is the primary key: it losslessly encodes the
// session date and short id, so there is no separate id-to-path table.
package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// Ext is the session file extension, including the dot.
const Ext = ".md"

// NoID is the short-id sentinel for legacy filenames that carry no id
// segment (YYYY-MM-DD-session.md).
const NoID = "no-id"

// Filename pattern: YYYY-MM-DD-[short-id]-session.md where the short id
// is 8+ lowercase alphanumeric characters and optional (legacy shape).
var filenameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:-([a-z0-9]{8,}))?-session\.md$`)

// Name is the structured identity encoded in a session filename.
type Name struct {
	Date    string
	ShortID string
}

// Parse extracts the identity from a session filename. The second
// return is false for any name that does not match the pattern.
func Parse(filename string) (Name, bool) {
	m := filenameRe.FindStringSubmatch(filename)
	if m == nil {
		return Name{}, false
	}
	id := m[2]
	if id == "" {
		id = NoID
	}
	return Name{Date: m[1], ShortID: id}, true
}

// Format is the inverse of Parse: it renders the filename for a date
// and short id. An empty or sentinel id produces the legacy shape.
func Format(date, shortID string) string {
	if shortID == "" || shortID == NoID {
		return fmt.Sprintf("%s-session%s", date, Ext)
	}
	return fmt.Sprintf("%s-%s-session%s", date, shortID, Ext)
}

// MatchesID reports whether the session named filename (with parsed
// identity n) satisfies the query id under any of the three match
// rules: short-id prefix, exact filename (extension optional), or
// legacy exact. Callers resolve an id to the first matching entry in
// lexicographic filename order, which keeps the result deterministic
// across filesystems.
func MatchesID(n Name, filename, id string) bool {
	if id == "" {
		return false
	}
	if n.ShortID != NoID && strings.HasPrefix(n.ShortID, id) {
		return true
	}
	if filename == id || filename == id+Ext {
		return true
	}
	return n.ShortID == NoID && filename == id+"-session"+Ext
}
