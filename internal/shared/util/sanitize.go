package util

import (
	"errors"
	"strings"
)

// Upload names become object-store key segments, so they stay bounded.
const maxFileNameLen = 255

// ErrInvalidFileName rejects names unusable as storage key segments.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName normalizes an uploaded contract's file name for use in a
// storage key: path separators and control characters are replaced, traversal
// patterns are rejected outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameLen {
		s = s[len(s)-maxFileNameLen:]
	}
	return s, nil
}
