package audit

import "time"

// Finding severities, ordered critical > high > medium > low.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// SeverityRank returns the sort rank for a severity; unknown severities
// sort last.
func SeverityRank(severity string) int {
	if rank, ok := severityRank[severity]; ok {
		return rank
	}
	return len(severityRank)
}

// Finding is one flagged risk pattern in a document.
type Finding struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"documentId"`
	FindingType      string    `json:"findingType"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Severity         string    `json:"severity"`
	RiskScore        float64   `json:"riskScore"`
	EvidenceText     string    `json:"evidenceText,omitempty"`
	PageNumber       int       `json:"pageNumber,omitempty"`
	Start            int       `json:"start,omitempty"`
	End              int       `json:"end,omitempty"`
	Recommendation   string    `json:"recommendation"`
	ComplianceImpact string    `json:"complianceImpact,omitempty"`
	DetectionModel   string    `json:"detectionModel,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SkippedRule records a rule whose detection failed. The audit run
// continues without it.
type SkippedRule struct {
	FindingType string `json:"findingType"`
	Reason      string `json:"reason"`
}
