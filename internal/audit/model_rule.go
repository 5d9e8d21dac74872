package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contract-backend/internal/llm"
	"contract-backend/internal/shared/telemetry"
)

const modelAuditPrompt = `You are a contract risk auditor. Analyze the following contract text and return a JSON array of risky clauses.

For each finding, return:
- finding_type: short label (e.g. "hidden_fees", "one_sided_amendment")
- title: human-readable title
- description: why this is risky
- severity: one of [low, medium, high, critical]
- risk_score: number 0-10
- evidence_text: exact span of text that triggered this
- page_number: page number where the evidence occurs
- char_start: character start position in that page
- char_end: character end position in that page
- recommendation: how to mitigate
- compliance_impact: potential legal or operational impact

Do not repeat auto-renewal, liability cap, indemnification, termination notice, or governing law findings; those are covered elsewhere. Output only a valid JSON array of objects.`

// modelFinding mirrors the JSON shape the audit prompt requests.
type modelFinding struct {
	FindingType      string  `json:"finding_type"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Severity         string  `json:"severity"`
	RiskScore        float64 `json:"risk_score"`
	EvidenceText     string  `json:"evidence_text"`
	PageNumber       int     `json:"page_number"`
	CharStart        int     `json:"char_start"`
	CharEnd          int     `json:"char_end"`
	Recommendation   string  `json:"recommendation"`
	ComplianceImpact string  `json:"compliance_impact"`
}

// ModelRule returns the model-assisted detector for risk patterns the
// deterministic rules cannot express.
func ModelRule(client llm.Client, modelID string) Rule {
	return Rule{
		FindingType: TypeModelReview,
		Detect: func(ctx context.Context, input Input) ([]Draft, error) {
			if client == nil {
				return nil, nil
			}

			var text strings.Builder
			for _, page := range input.Pages {
				if strings.TrimSpace(page.Text) == "" {
					continue
				}
				fmt.Fprintf(&text, "[PAGE %d]\n%s\n\n", page.PageNumber, page.Text)
			}
			if text.Len() == 0 {
				return nil, nil
			}

			retried := llm.WithRetry(client,
				telemetry.TaskIDFromContext(ctx), telemetry.RequestIDFromContext(ctx))
			raw, err := retried.Complete(ctx, []llm.Message{
				{Role: "system", Content: modelAuditPrompt},
				{Role: "user", Content: "Contract content:\n" + text.String()},
			})
			if err != nil {
				return nil, err
			}

			parsed, err := parseModelFindings(raw)
			if err != nil {
				return nil, err
			}

			drafts := make([]Draft, 0, len(parsed))
			for _, f := range parsed {
				drafts = append(drafts, Draft{
					FindingType:      normalizeType(f.FindingType),
					Title:            f.Title,
					Description:      f.Description,
					Severity:         normalizeSeverity(f.Severity),
					RiskScore:        clampScore(f.RiskScore),
					EvidenceText:     f.EvidenceText,
					PageNumber:       f.PageNumber,
					Start:            f.CharStart,
					End:              f.CharEnd,
					Recommendation:   f.Recommendation,
					ComplianceImpact: f.ComplianceImpact,
					DetectionModel:   modelID,
				})
			}
			return drafts, nil
		},
	}
}

func parseModelFindings(raw string) ([]modelFinding, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("audit response contains no JSON array")
	}
	var parsed []modelFinding
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("audit response parse: %w", err)
	}
	return parsed, nil
}

func normalizeType(findingType string) string {
	cleaned := strings.ToLower(strings.TrimSpace(findingType))
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	cleaned = strings.ReplaceAll(cleaned, "-", "_")
	if cleaned == "" {
		return TypeModelReview
	}
	return cleaned
}

func normalizeSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
