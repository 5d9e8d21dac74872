package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-backend/internal/documents"
	"contract-backend/internal/fields"
)

type stubPages struct {
	pages []documents.Page
}

func (s *stubPages) Pages(ctx context.Context, documentID string) ([]documents.Page, error) {
	return s.pages, nil
}

type stubFields struct {
	values []fields.ExtractedField
	err    error
}

func (s *stubFields) Get(ctx context.Context, documentID string) ([]fields.ExtractedField, error) {
	return s.values, s.err
}

func TestProcessIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{
		Repo: repo,
		Pages: &stubPages{pages: []documents.Page{
			{DocumentID: "doc-1", PageNumber: 1, Text: "The supplier accepts unlimited liability. This agreement shall renew automatically."},
		}},
		Fields: &stubFields{values: []fields.ExtractedField{
			fieldValue("auto_renewal", true),
			fieldValue("auto_renewal_notice_days", float64(15)),
			fieldValue("governing_law", "Delaware"),
		}},
		Engine: NewEngine(BuiltinRules()),
	}

	require.NoError(t, svc.Process(context.Background(), "doc-1"))
	first, err := repo.ByDocument(context.Background(), "doc-1")
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), "doc-1"))
	second, err := repo.ByDocument(context.Background(), "doc-1")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second), "repeat audit must replace findings, not append")
	for i := range first {
		assert.Equal(t, first[i].FindingType, second[i].FindingType)
		assert.Equal(t, first[i].Severity, second[i].Severity)
	}
}

func TestProcessWithoutExtractionStillRuns(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{
		Repo: repo,
		Pages: &stubPages{pages: []documents.Page{
			{DocumentID: "doc-1", PageNumber: 1, Text: "The supplier accepts unlimited liability."},
		}},
		Fields: &stubFields{err: fields.ErrNotExtracted},
		Engine: NewEngine(BuiltinRules()),
	}

	require.NoError(t, svc.Process(context.Background(), "doc-1"))
	findings, err := repo.ByDocument(context.Background(), "doc-1")
	require.NoError(t, err)

	hasLiability := false
	for _, f := range findings {
		if f.FindingType == TypeUnlimitedLiability {
			hasLiability = true
		}
	}
	assert.True(t, hasLiability)
}
