// Package timestamp produces and parses the canonical capture timestamp.
//
// The canonical form is fixed-width and zero-padded (2025-01-01-09-30-00), so
// lexicographic order of two encoded values matches chronological order for
// instants at least one second apart. Instants inside the same second encode
// to the same string; artifacts written in that second overwrite each other.
package timestamp

import (
	"strings"
	"time"
)

// Layout is the Go reference layout of the canonical timestamp.
const Layout = "2006-01-02-15-04-05"

// TextExt is the extension carried by every persisted text artifact.
const TextExt = ".txt"

// Clock returns the current wall-clock time.
type Clock func() time.Time

// SystemClock is the default Clock.
func SystemClock() time.Time {
	return time.Now()
}

// Encode renders t in local time using Layout.
func Encode(t time.Time) string {
	return t.Local().Format(Layout)
}

// Now encodes the current time of clock. A nil clock uses SystemClock.
func Now(clock Clock) string {
	if clock == nil {
		clock = SystemClock
	}
	return Encode(clock())
}

// Parse is the inverse of Encode, interpreting s in local time.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.Local)
}

// Valid reports whether s is a well-formed canonical timestamp.
func Valid(s string) bool {
	if len(s) != len(Layout) {
		return false
	}
	_, err := Parse(s)
	return err == nil
}

// StripExtension returns the base name of a text artifact filename.
// ok is false when name does not end in TextExt.
func StripExtension(name string) (ts string, ok bool) {
	if !strings.HasSuffix(name, TextExt) {
		return "", false
	}
	return strings.TrimSuffix(name, TextExt), true
}

// FileName returns the text artifact filename for ts.
func FileName(ts string) string {
	return ts + TextExt
}
