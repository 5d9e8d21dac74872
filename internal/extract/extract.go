// Package extract turns raw contract files into ordered page texts. It is the
// ingestion boundary: format-specific parsing lives here, everything
// downstream only sees page text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"contract-backend/internal/shared/storage/object"
	"contract-backend/internal/shared/telemetry"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// ErrNoText indicates extraction produced no usable text for any page.
var ErrNoText = errors.New("extraction produced no text")

// PageText is the text of one page, 1-indexed.
type PageText struct {
	PageNumber int
	Text       string
}

// Pages pulls per-page text from a stored document file. A page that fails to
// extract is logged and skipped; the whole call fails only when no page
// yields text. Libraries used: github.com/ledongthuc/pdf (PDF); DOCX and
// plain text are handled inline.
func Pages(ctx context.Context, store object.ObjectStore, fileKey string, mimeType string, fileName string) ([]PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("extract pages key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("extract pages key=%s mime=%s: read: %w", fileKey, mimeType, err)
	}

	pages, err := PagesFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return nil, fmt.Errorf("extract pages key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	return pages, nil
}

// PagesFromBytes extracts page texts from an in-memory payload.
func PagesFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) ([]PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch normalizeMimeType(mimeType, fileName, data) {
	case mimePDF:
		return extractPDFPages(data)
	case mimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return nil, err
		}
		return singlePage(text)
	case mimeText:
		return singlePage(strings.TrimSpace(string(data)))
	default:
		if strings.HasPrefix(normalizeMimeType(mimeType, fileName, data), "text/") {
			return singlePage(strings.TrimSpace(string(data)))
		}
		return nil, fmt.Errorf("unsupported mime type: %s", mimeType)
	}
}

func singlePage(text string) ([]PageText, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	return []PageText{{PageNumber: 1, Text: text}}, nil
}

func extractPDFPages(data []byte) ([]PageText, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, err
	}

	total := pdfReader.NumPage()
	pages := make([]PageText, 0, total)
	for num := 1; num <= total; num++ {
		page := pdfReader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			telemetry.Warn("extract.page_failed", map[string]any{
				"page":  num,
				"error": err.Error(),
			})
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{PageNumber: num, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" && clean != "" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return mimeDOCX
	case ".pdf":
		return mimePDF
	case ".txt":
		return mimeText
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
