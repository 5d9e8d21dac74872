package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "contract.pdf", "contract.pdf"},
		{"separators replaced", "a/b\\c.pdf", "a_b_c.pdf"},
		{"control chars replaced", "msa\x00\x1f.pdf", "msa__.pdf"},
		{"whitespace trimmed", "  nda.pdf  ", "nda.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeFileName(tc.in)
			if err != nil {
				t.Fatalf("sanitize %q: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("sanitize %q = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	for _, in := range []string{"../etc/passwd", "a/../b.pdf", "", "   "} {
		if _, err := SanitizeFileName(in); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected ErrInvalidFileName for %q, got %v", in, err)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(got) != 255 {
		t.Fatalf("expected 255 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("extension must survive truncation: %q", got)
	}
}
