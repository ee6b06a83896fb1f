// Package paging implements cursor-based pagination over a (created_at, id) ordering.
package paging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// CursorLayout is the ISO-8601 local date-time written into cursors. Fractional
// seconds are printed only when non-zero, without trailing zeros.
const CursorLayout = "2006-01-02T15:04:05.999999999"

// minuteLayout is the shortest local date-time still accepted when decoding.
const minuteLayout = "2006-01-02T15:04"

var ErrInvalidCursor = errors.New("invalid cursor")

// cursorShape is the exact text accepted before parsing. time.Parse alone lets
// through one-digit hours, comma fractions and over-long fractions.
var cursorShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d{1,9})?)?$`)

// EncodeCursor turns a creation timestamp into an opaque token.
func EncodeCursor(t time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(t.Format(CursorLayout)))
}

// DecodeCursor reverses EncodeCursor. The returned time is in UTC, which is how
// timestamps without zone come back from the database.
func DecodeCursor(token string) (time.Time, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	s := string(raw)
	if !cursorShape.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: malformed timestamp %q", ErrInvalidCursor, s)
	}
	t, err := time.ParseInLocation(CursorLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.ParseInLocation(minuteLayout, s, time.UTC); err2 == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
}
