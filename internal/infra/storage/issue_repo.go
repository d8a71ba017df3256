package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type IssueReport struct {
	ID          uuid.UUID
	Signature   string
	Source      string
	Title       string
	Body        string
	ExternalURL string
	CreatedAt   time.Time
}

type IssueRepo struct{ db *sql.DB }

func NewIssueRepo(db *sql.DB) *IssueRepo { return &IssueRepo{db: db} }

func (r *IssueRepo) Insert(ctx context.Context, ir IssueReport) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO issue_reports (id, signature, source, title, body, external_url)
VALUES ($1,$2,$3,$4,$5,$6)
`, ir.ID, ir.Signature, ir.Source, ir.Title, ir.Body, nullIfEmpty(ir.ExternalURL))
	return err
}
