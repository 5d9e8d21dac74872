package audit

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/shared/telemetry"
)

// Engine runs the registered rules over one document. Rules execute
// independently: a detection failure records a skipped rule and the
// remaining rules still run.
type Engine struct {
	Rules []Rule
}

// NewEngine constructs an Engine with the given rule table.
func NewEngine(rules []Rule) *Engine {
	return &Engine{Rules: rules}
}

// Run evaluates every rule and returns findings sorted by severity,
// ties broken by finding type name.
func (e *Engine) Run(ctx context.Context, input Input) ([]Finding, []SkippedRule) {
	now := time.Now().UTC()
	findings := []Finding{}
	skipped := []SkippedRule{}

	for _, rule := range e.Rules {
		drafts, err := rule.Detect(ctx, input)
		if err != nil {
			skipped = append(skipped, SkippedRule{FindingType: rule.FindingType, Reason: err.Error()})
			telemetry.Warn("audit.rule_skipped", map[string]any{
				"document_id":  input.DocumentID,
				"finding_type": rule.FindingType,
				"error":        err.Error(),
			})
			continue
		}
		for _, draft := range drafts {
			findings = append(findings, Finding{
				ID:               uuid.NewString(),
				DocumentID:       input.DocumentID,
				FindingType:      draft.FindingType,
				Title:            draft.Title,
				Description:      draft.Description,
				Severity:         draft.Severity,
				RiskScore:        draft.RiskScore,
				EvidenceText:     draft.EvidenceText,
				PageNumber:       draft.PageNumber,
				Start:            draft.Start,
				End:              draft.End,
				Recommendation:   draft.Recommendation,
				ComplianceImpact: draft.ComplianceImpact,
				DetectionModel:   draft.DetectionModel,
				CreatedAt:        now,
			})
		}
	}

	findings = dedupeByType(findings)

	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := SeverityRank(findings[i].Severity), SeverityRank(findings[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return findings[i].FindingType < findings[j].FindingType
	})
	return findings, skipped
}

// dedupeByType collapses findings of the same type to one per run. Rules can
// overlap, and model-assisted detection may report the same risk more than
// once; the finding with the more severe rating wins, then the higher risk
// score, then the earlier detection.
func dedupeByType(findings []Finding) []Finding {
	keep := make(map[string]int, len(findings))
	out := findings[:0]
	for _, finding := range findings {
		at, seen := keep[finding.FindingType]
		if !seen {
			keep[finding.FindingType] = len(out)
			out = append(out, finding)
			continue
		}
		held := out[at]
		if SeverityRank(finding.Severity) < SeverityRank(held.Severity) ||
			(SeverityRank(finding.Severity) == SeverityRank(held.Severity) && finding.RiskScore > held.RiskScore) {
			out[at] = finding
		}
	}
	return out
}
