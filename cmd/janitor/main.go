package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

// reportes resueltos se guardan una semana; el resto, un mes
const purgeIssueReports = `
DELETE FROM issue_reports
WHERE created_at < now() - INTERVAL '30 days'
   OR (resolved_at IS NOT NULL AND resolved_at < now() - INTERVAL '7 days');`

func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := pool.Exec(cctx, purgeIssueReports)
	if err != nil {
		log.Printf("[janitor] purge issue_reports: %v", err)
		return fmt.Sprintf("purge: %v", err), nil
	}
	log.Printf("[janitor] purged issue_reports=%d", tag.RowsAffected())
	return fmt.Sprintf("ok purged=%d", tag.RowsAffected()), nil
}

func main() { lambda.Start(handler) }
