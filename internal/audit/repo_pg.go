package audit

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ReplaceForDocument atomically swaps the document's findings.
func (r *PGRepo) ReplaceForDocument(ctx context.Context, documentID string, findings []Finding) error {
	const insert = `
INSERT INTO audit_findings (id, document_id, finding_type, title, description, severity, risk_score,
	evidence_text, page_number, char_start, char_end, recommendation, compliance_impact, detection_model, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_findings WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	for _, f := range findings {
		if _, err := tx.ExecContext(ctx, insert,
			f.ID, f.DocumentID, f.FindingType, f.Title, f.Description, f.Severity, f.RiskScore,
			f.EvidenceText, f.PageNumber, f.Start, f.End, f.Recommendation, f.ComplianceImpact,
			nullFindingString(f.DetectionModel), f.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ByDocument returns findings ordered by severity then finding type.
func (r *PGRepo) ByDocument(ctx context.Context, documentID string) ([]Finding, error) {
	const query = `
SELECT id, document_id, finding_type, title, description, severity, risk_score,
	evidence_text, page_number, char_start, char_end, recommendation, compliance_impact, detection_model, created_at
FROM audit_findings
WHERE document_id = $1
ORDER BY CASE severity
	WHEN 'critical' THEN 0
	WHEN 'high' THEN 1
	WHEN 'medium' THEN 2
	WHEN 'low' THEN 3
	ELSE 4
END, finding_type`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	findings := []Finding{}
	for rows.Next() {
		var f Finding
		var detectionModel sql.NullString
		if err := rows.Scan(
			&f.ID, &f.DocumentID, &f.FindingType, &f.Title, &f.Description, &f.Severity, &f.RiskScore,
			&f.EvidenceText, &f.PageNumber, &f.Start, &f.End, &f.Recommendation, &f.ComplianceImpact,
			&detectionModel, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.DetectionModel = detectionModel.String
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// DeleteByDocument removes all findings for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM audit_findings WHERE document_id = $1`, documentID)
	return err
}

func nullFindingString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
