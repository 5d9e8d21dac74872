package audit

import (
	"context"
	"fmt"
	"strings"

	"contract-backend/internal/documents"
	"contract-backend/internal/fields"
)

// Finding types emitted by the built-in rules.
const (
	TypeAutoRenewal        = "auto_renewal"
	TypeUnlimitedLiability = "unlimited_liability"
	TypeIndemnification    = "indemnification"
	TypeTerminationNotice  = "termination_notice"
	TypeGoverningLawUnset  = "governing_law_missing"
	TypeModelReview        = "model_review"
)

// autoRenewalMinNoticeDays is the threshold below which an auto-renewal
// notice period is flagged.
const autoRenewalMinNoticeDays = 30

// Input carries everything a rule may inspect. Fields is keyed by field
// name; documents without extraction results get an empty map.
type Input struct {
	DocumentID string
	Pages      []documents.Page
	Fields     map[string]fields.ExtractedField
}

// Draft is a finding before identity and timestamps are assigned.
type Draft struct {
	FindingType      string
	Title            string
	Description      string
	Severity         string
	RiskScore        float64
	EvidenceText     string
	PageNumber       int
	Start            int
	End              int
	Recommendation   string
	ComplianceImpact string
	DetectionModel   string
}

// Rule is one independent detector. A detection error skips the rule
// without aborting the audit run.
type Rule struct {
	FindingType string
	Detect      func(ctx context.Context, input Input) ([]Draft, error)
}

// BuiltinRules returns the deterministic rule table, keyed by finding type.
func BuiltinRules() []Rule {
	return []Rule{
		{FindingType: TypeAutoRenewal, Detect: detectAutoRenewal},
		{FindingType: TypeUnlimitedLiability, Detect: detectUnlimitedLiability},
		{FindingType: TypeIndemnification, Detect: detectBroadIndemnification},
		{FindingType: TypeTerminationNotice, Detect: detectShortTerminationNotice},
		{FindingType: TypeGoverningLawUnset, Detect: detectMissingGoverningLaw},
	}
}

func detectAutoRenewal(ctx context.Context, input Input) ([]Draft, error) {
	renews, ok, err := boolField(input, "auto_renewal")
	if err != nil {
		return nil, err
	}
	if !ok || !renews {
		return nil, nil
	}

	noticeDays, ok, err := numberField(input, "auto_renewal_notice_days")
	if err != nil {
		return nil, err
	}
	if ok && noticeDays >= autoRenewalMinNoticeDays {
		return nil, nil
	}

	draft := Draft{
		FindingType:      TypeAutoRenewal,
		Title:            "Auto-renewal with short notice window",
		Severity:         SeverityHigh,
		RiskScore:        7,
		Recommendation:   fmt.Sprintf("Negotiate a notice period of at least %d days before renewal, or remove the auto-renewal clause.", autoRenewalMinNoticeDays),
		ComplianceImpact: "Unintended renewal commits the organization to another term without review.",
	}
	if ok {
		draft.Description = fmt.Sprintf("The contract renews automatically and the notice period to prevent renewal is %.0f days, below the %d-day threshold.", noticeDays, autoRenewalMinNoticeDays)
	} else {
		draft.Description = "The contract renews automatically and no notice period to prevent renewal could be determined."
	}
	attachEvidence(&draft, input.Pages, "renew")
	return []Draft{draft}, nil
}

func detectUnlimitedLiability(ctx context.Context, input Input) ([]Draft, error) {
	patterns := []string{"unlimited liability", "liability shall be unlimited", "without limitation of liability"}
	for _, pattern := range patterns {
		if page, start, end, ok := findSpan(input.Pages, pattern); ok {
			return []Draft{{
				FindingType:      TypeUnlimitedLiability,
				Title:            "Unlimited liability exposure",
				Description:      "The contract exposes a party to liability without a cap.",
				Severity:         SeverityCritical,
				RiskScore:        9,
				EvidenceText:     pageSlice(input.Pages, page, start, end),
				PageNumber:       page,
				Start:            start,
				End:              end,
				Recommendation:   "Add a liability cap tied to fees paid, with carve-outs limited to standard exceptions.",
				ComplianceImpact: "Uncapped damages can exceed the value of the contract many times over.",
			}}, nil
		}
	}

	// No cap extracted and liability is discussed: lower-confidence variant.
	if _, ok, err := numberField(input, "liability_cap"); err != nil {
		return nil, err
	} else if !ok {
		if page, start, end, found := findSpan(input.Pages, "liabilit"); found {
			return []Draft{{
				FindingType:      TypeUnlimitedLiability,
				Title:            "No liability cap identified",
				Description:      "Liability is addressed but no cap amount could be identified.",
				Severity:         SeverityMedium,
				RiskScore:        5,
				EvidenceText:     pageSlice(input.Pages, page, start, end),
				PageNumber:       page,
				Start:            start,
				End:              end,
				Recommendation:   "Confirm whether a liability cap exists and add one if absent.",
				ComplianceImpact: "Absent a cap, damages default to whatever a court awards.",
			}}, nil
		}
	}
	return nil, nil
}

func detectBroadIndemnification(ctx context.Context, input Input) ([]Draft, error) {
	if _, _, _, ok := findSpan(input.Pages, "indemnif"); !ok {
		return nil, nil
	}
	for _, pattern := range []string{"any and all claims", "any and all losses", "harmless from all"} {
		if page, start, end, ok := findSpan(input.Pages, pattern); ok {
			return []Draft{{
				FindingType:      TypeIndemnification,
				Title:            "Broad indemnification obligation",
				Description:      "The indemnity extends to any and all claims rather than claims caused by the indemnifying party.",
				Severity:         SeverityHigh,
				RiskScore:        7,
				EvidenceText:     pageSlice(input.Pages, page, start, end),
				PageNumber:       page,
				Start:            start,
				End:              end,
				Recommendation:   "Narrow the indemnity to third-party claims arising from the indemnifying party's acts or omissions.",
				ComplianceImpact: "Broad indemnities shift first-party risk that insurance may not cover.",
			}}, nil
		}
	}
	return nil, nil
}

func detectShortTerminationNotice(ctx context.Context, input Input) ([]Draft, error) {
	noticeDays, ok, err := numberField(input, "termination_notice_days")
	if err != nil {
		return nil, err
	}
	if !ok || noticeDays >= 30 {
		return nil, nil
	}

	draft := Draft{
		FindingType:      TypeTerminationNotice,
		Title:            "Short termination notice period",
		Description:      fmt.Sprintf("Termination requires only %.0f days of notice.", noticeDays),
		Severity:         SeverityMedium,
		RiskScore:        5,
		Recommendation:   "Extend the termination notice period to at least 30 days to allow transition planning.",
		ComplianceImpact: "Abrupt termination leaves little time to replace the counterparty's services.",
	}
	attachEvidence(&draft, input.Pages, "terminat")
	return []Draft{draft}, nil
}

func detectMissingGoverningLaw(ctx context.Context, input Input) ([]Draft, error) {
	field, ok := input.Fields["governing_law"]
	if ok && field.Value != nil && !field.Malformed {
		return nil, nil
	}
	if _, _, _, found := findSpan(input.Pages, "governing law"); found {
		return nil, nil
	}
	return []Draft{{
		FindingType:    TypeGoverningLawUnset,
		Title:          "No governing law clause",
		Description:    "No governing law or jurisdiction could be identified in the contract.",
		Severity:       SeverityLow,
		RiskScore:      3,
		Recommendation: "Add a governing law clause naming a jurisdiction acceptable to both parties.",
	}}, nil
}

// boolField reads a boolean field; a malformed value is a rule error so
// the rule is skipped rather than silently passing.
func boolField(input Input, name string) (bool, bool, error) {
	field, ok := input.Fields[name]
	if !ok || field.Value == nil {
		return false, false, nil
	}
	if field.Malformed {
		return false, false, fmt.Errorf("field %s is malformed: %v", name, field.Value)
	}
	b, ok := field.Value.(bool)
	if !ok {
		return false, false, fmt.Errorf("field %s is not a boolean: %v", name, field.Value)
	}
	return b, true, nil
}

func numberField(input Input, name string) (float64, bool, error) {
	field, ok := input.Fields[name]
	if !ok || field.Value == nil {
		return 0, false, nil
	}
	if field.Malformed {
		return 0, false, fmt.Errorf("field %s is malformed: %v", name, field.Value)
	}
	f, ok := field.Value.(float64)
	if !ok {
		return 0, false, fmt.Errorf("field %s is not a number: %v", name, field.Value)
	}
	return f, true, nil
}

// findSpan locates the first case-insensitive occurrence of pattern and
// returns its page number and character span within that page.
func findSpan(pages []documents.Page, pattern string) (page, start, end int, ok bool) {
	needle := strings.ToLower(pattern)
	for _, p := range pages {
		idx := strings.Index(strings.ToLower(p.Text), needle)
		if idx >= 0 {
			return p.PageNumber, idx, idx + len(pattern), true
		}
	}
	return 0, 0, 0, false
}

func pageSlice(pages []documents.Page, pageNumber, start, end int) string {
	for _, p := range pages {
		if p.PageNumber == pageNumber && start >= 0 && end <= len(p.Text) && start < end {
			return p.Text[start:end]
		}
	}
	return ""
}

func attachEvidence(draft *Draft, pages []documents.Page, pattern string) {
	if page, start, end, ok := findSpan(pages, pattern); ok {
		draft.PageNumber = page
		draft.Start = start
		draft.End = end
		draft.EvidenceText = pageSlice(pages, page, start, end)
	}
}
