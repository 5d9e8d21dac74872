package fields

import (
	"context"
	"testing"

	"contract-backend/internal/llm"
)

type fixedLLM struct {
	response string
	err      error
}

func (f *fixedLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return f.response, f.err
}

func (f *fixedLLM) CompleteStream(ctx context.Context, messages []llm.Message, emit func(token string) error) (string, error) {
	return f.response, f.err
}

func extractOne(t *testing.T, response, name string) Value {
	t.Helper()
	e := &Extractor{LLM: &fixedLLM{response: response}}
	values, err := e.Extract(context.Background(), "contract text")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, v := range values {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("field %s missing from results", name)
	return Value{}
}

func TestExtractCoercesWellFormedValues(t *testing.T) {
	response := `{
		"parties": ["Alpha Inc.", "Beta LLC"],
		"effective_date": "2024-01-01",
		"auto_renewal": true,
		"liability_cap": 100000,
		"governing_law": "California"
	}`

	v := extractOne(t, response, "effective_date")
	if v.Value != "2024-01-01" || v.Confidence != ConfidenceExtracted || v.Malformed {
		t.Fatalf("unexpected date field: %+v", v)
	}

	v = extractOne(t, response, "parties")
	list, ok := v.Value.([]string)
	if !ok || len(list) != 2 {
		t.Fatalf("unexpected parties: %+v", v)
	}

	v = extractOne(t, response, "liability_cap")
	if v.Value != float64(100000) {
		t.Fatalf("unexpected liability cap: %+v", v)
	}
}

func TestExtractKeepsMalformedDateWithLowConfidence(t *testing.T) {
	v := extractOne(t, `{"effective_date": "sometime next year"}`, "effective_date")
	if !v.Malformed {
		t.Fatal("expected malformed marker")
	}
	if v.Confidence != ConfidenceMalformed {
		t.Fatalf("expected low confidence, got %v", v.Confidence)
	}
	if v.Value != "sometime next year" {
		t.Fatalf("raw value must be preserved, got %v", v.Value)
	}
}

func TestExtractMissingFieldIsNotFound(t *testing.T) {
	v := extractOne(t, `{"governing_law": "Delaware"}`, "liability_cap")
	if v.Value != nil {
		t.Fatalf("expected nil value, got %v", v.Value)
	}
	if v.Confidence != ConfidenceNotFound || v.Malformed {
		t.Fatalf("missing field must not look malformed: %+v", v)
	}
}

func TestExtractCoercesBoolFromString(t *testing.T) {
	v := extractOne(t, `{"auto_renewal": "yes"}`, "auto_renewal")
	if v.Value != true || v.Malformed {
		t.Fatalf("unexpected auto_renewal: %+v", v)
	}
}

func TestExtractWrapsScalarParty(t *testing.T) {
	v := extractOne(t, `{"parties": "Alpha Inc."}`, "parties")
	list, ok := v.Value.([]string)
	if !ok || len(list) != 1 || list[0] != "Alpha Inc." {
		t.Fatalf("expected single-element list, got %+v", v)
	}
}

func TestExtractParsesLooseNumbers(t *testing.T) {
	v := extractOne(t, `{"total_value": "$50,000"}`, "total_value")
	if v.Value != float64(50000) || v.Malformed {
		t.Fatalf("unexpected total_value: %+v", v)
	}

	v = extractOne(t, `{"auto_renewal_notice_days": "15 days"}`, "auto_renewal_notice_days")
	if v.Value != float64(15) {
		t.Fatalf("unexpected notice days: %+v", v)
	}
}

func TestExtractToleratesCodeFences(t *testing.T) {
	response := "```json\n{\"governing_law\": \"New York\"}\n```"
	v := extractOne(t, response, "governing_law")
	if v.Value != "New York" {
		t.Fatalf("unexpected governing_law: %+v", v)
	}
}

func TestExtractRejectsNonJSONResponse(t *testing.T) {
	e := &Extractor{LLM: &fixedLLM{response: "I could not find any fields."}}
	if _, err := e.Extract(context.Background(), "text"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}
