package fields

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contract-backend/internal/llm"
)

// maxPromptChars bounds how much document text goes into the prompt.
const maxPromptChars = 6000

// Extractor pulls the schema's fields out of document text via an LLM
// call. Extraction is idempotent in which fields are requested and how
// results are typed; the generative step itself is not deterministic.
type Extractor struct {
	LLM llm.Client
}

// Value is one extracted field before persistence.
type Value struct {
	Name       string
	Type       string
	Value      any
	Confidence float64
	Malformed  bool
}

// Extract requests every schema field from the model and coerces the
// response. Values failing coercion are kept with a low-confidence
// marker; fields the model reports as null come back with zero
// confidence and a nil value.
func (e *Extractor) Extract(ctx context.Context, documentText string) ([]Value, error) {
	raw, err := e.LLM.Complete(ctx, buildExtractionMessages(documentText))
	if err != nil {
		return nil, err
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	values := make([]Value, 0, len(Schema()))
	for _, def := range Schema() {
		values = append(values, coerce(def, parsed[def.Name]))
	}
	return values, nil
}

func buildExtractionMessages(documentText string) []llm.Message {
	if len(documentText) > maxPromptChars {
		documentText = documentText[:maxPromptChars]
	}

	var spec strings.Builder
	for i, def := range Schema() {
		fmt.Fprintf(&spec, "%d. %s (%s): %s\n", i+1, def.Name, def.Type, def.Description)
	}

	system := "You are a contract analysis expert. Extract the requested fields from the contract text and return ONLY a valid JSON object. Use null for any field that cannot be found. Use YYYY-MM-DD for dates, numeric values for amounts, and 3-letter codes for currencies."
	user := fmt.Sprintf("Contract text:\n%s\n\nExtract these fields:\n%s\nReturn a single JSON object keyed by field name.", documentText, spec.String())
	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// parseResponse tolerates code fences and prose around the JSON object.
func parseResponse(raw string) (map[string]json.RawMessage, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("extraction response contains no JSON object")
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("extraction response parse: %w", err)
	}
	return parsed, nil
}

func coerce(def FieldDef, raw json.RawMessage) Value {
	v := Value{Name: def.Name, Type: def.Type}
	if len(raw) == 0 || string(raw) == "null" {
		v.Confidence = ConfidenceNotFound
		return v
	}

	coerced, ok := coerceTyped(def.Type, raw)
	if !ok {
		v.Value = rawAsString(raw)
		v.Confidence = ConfidenceMalformed
		v.Malformed = true
		return v
	}
	v.Value = coerced
	v.Confidence = ConfidenceExtracted
	return v
}

func coerceTyped(fieldType string, raw json.RawMessage) (any, bool) {
	switch fieldType {
	case TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false
		}
		return s, true

	case TypeDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, false
		}
		return s, true

	case TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
		return nil, false

	case TypeNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		if f, ok := parseLooseNumber(s); ok {
			return f, true
		}
		return nil, false

	case TypeStringList:
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, true
		}
		// A lone string becomes a single-element list.
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		if strings.TrimSpace(s) == "" {
			return nil, false
		}
		return []string{s}, true

	case TypeObjectList:
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, true
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		return []map[string]any{obj}, true
	}
	return nil, false
}

// parseLooseNumber accepts values the model wrapped in currency symbols
// or digit grouping, e.g. "$100,000" or "30 days".
func parseLooseNumber(s string) (float64, bool) {
	var cleaned strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	if cleaned.Len() == 0 {
		return 0, false
	}
	var f float64
	if _, err := fmt.Sscanf(cleaned.String(), "%g", &f); err != nil {
		return 0, false
	}
	return f, true
}

func rawAsString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
