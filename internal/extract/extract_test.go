package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestPagesFromBytesPlainText(t *testing.T) {
	pages, err := PagesFromBytes(context.Background(), []byte("Payment shall be made within 30 days."), "text/plain", "contract.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].PageNumber != 1 {
		t.Fatalf("expected page 1, got %d", pages[0].PageNumber)
	}
}

func TestPagesFromBytesEmptyText(t *testing.T) {
	_, err := PagesFromBytes(context.Background(), []byte("   \n "), "text/plain", "empty.txt")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestPagesFromBytesUnsupportedMime(t *testing.T) {
	_, err := PagesFromBytes(context.Background(), []byte{0x01}, "image/png", "scan.png")
	if err == nil {
		t.Fatal("expected error for unsupported mime type")
	}
}

func TestPagesFromBytesDOCX(t *testing.T) {
	doc := buildDocx(t, `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body><w:p><w:r><w:t>This Agreement is effective January 1.</w:t></w:r></w:p><w:p><w:r><w:t>Term: two years.</w:t></w:r></w:p></w:body></w:document>`)

	pages, err := PagesFromBytes(context.Background(), doc, "application/zip", "contract.docx")
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	want := "This Agreement is effective January 1.\nTerm: two years."
	if pages[0].Text != want {
		t.Fatalf("unexpected text: %q", pages[0].Text)
	}
}

func TestNormalizeMimeTypeByExtension(t *testing.T) {
	cases := []struct {
		fileName string
		want     string
	}{
		{"a.pdf", mimePDF},
		{"a.txt", mimeText},
		{"a.docx", mimeDOCX},
	}
	for _, tc := range cases {
		if got := normalizeMimeType("", tc.fileName, nil); got != tc.want {
			t.Fatalf("normalizeMimeType(%q) = %q, want %q", tc.fileName, got, tc.want)
		}
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
