package fields

import (
	"context"
	"testing"
)

type stubText struct {
	text string
}

func (s *stubText) FullText(ctx context.Context, documentID string) (string, error) {
	return s.text, nil
}

func TestProcessReplacesPriorResults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:      repo,
		Text:      &stubText{text: "Agreement between Alpha Inc. and Beta LLC."},
		Extractor: &Extractor{LLM: &fixedLLM{response: `{"parties": ["Alpha Inc.", "Beta LLC"]}`}},
	}

	if err := svc.Process(context.Background(), "doc-1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := repo.ByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := svc.Process(context.Background(), "doc-1"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := repo.ByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("repeat extraction changed field count: %d vs %d", len(first), len(second))
	}
	if len(second) != len(Schema()) {
		t.Fatalf("expected one row per schema field, got %d", len(second))
	}
}

func TestGetBeforeExtraction(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	if _, err := svc.Get(context.Background(), "doc-1"); err != ErrNotExtracted {
		t.Fatalf("expected ErrNotExtracted, got %v", err)
	}
}
