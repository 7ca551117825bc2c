// Package pgstore provides a PostgreSQL implementation of pipeline.Store.
package pgstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/beacon/internal/analyze"
	"github.com/linnemanlabs/beacon/internal/pipeline"
	"github.com/linnemanlabs/beacon/internal/postgres"
)

var tracer = otel.Tracer("github.com/linnemanlabs/beacon/internal/pipeline/pgstore")

//go:embed schema.sql
var schema string

// Store persists cycle reports in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, applies the schema, and returns a ready Store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const reportColumns = `id, cycle, window_start, window_end, event_count, skipped, lines,
	analysis, remediation_job_id, webhook_delivered, source_error, webhook_error,
	summary_error, sms_error, remedy_error, started_at, completed_at, duration_s`

// Put inserts or replaces a cycle report.
func (s *Store) Put(ctx context.Context, r *pipeline.CycleReport) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	lines, err := json.Marshal(r.Lines)
	if err != nil {
		return fmt.Errorf("marshal lines: %w", err)
	}
	var analysis []byte
	if r.Analysis != nil {
		analysis, err = json.Marshal(r.Analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
	}

	query := `INSERT INTO cycle_reports (` + reportColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			event_count = EXCLUDED.event_count,
			skipped = EXCLUDED.skipped,
			lines = EXCLUDED.lines,
			analysis = EXCLUDED.analysis,
			remediation_job_id = EXCLUDED.remediation_job_id,
			webhook_delivered = EXCLUDED.webhook_delivered,
			source_error = EXCLUDED.source_error,
			webhook_error = EXCLUDED.webhook_error,
			summary_error = EXCLUDED.summary_error,
			sms_error = EXCLUDED.sms_error,
			remedy_error = EXCLUDED.remedy_error,
			completed_at = EXCLUDED.completed_at,
			duration_s = EXCLUDED.duration_s`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.Cycle, r.WindowStart, r.WindowEnd, r.EventCount, r.Skipped, lines,
		analysis, r.RemediationJobID, r.WebhookDelivered, r.SourceError, r.WebhookError,
		r.SummaryError, r.SMSError, r.RemedyError, r.StartedAt, nullTime(r.CompletedAt), r.Duration,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert cycle report: %w", err)
	}
	return nil
}

// Get retrieves a cycle report by ID.
func (s *Store) Get(ctx context.Context, id string) (*pipeline.CycleReport, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + reportColumns + ` FROM cycle_reports WHERE id = $1`
	r, err := scanReport(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Latest retrieves the most recently started cycle report.
func (s *Store) Latest(ctx context.Context) (*pipeline.CycleReport, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Latest", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + reportColumns + ` FROM cycle_reports ORDER BY started_at DESC LIMIT 1`
	r, err := scanReport(s.pool.QueryRow(ctx, query))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

func scanReport(row pgx.Row) (*pipeline.CycleReport, error) {
	var r pipeline.CycleReport
	var lines, analysis []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.Cycle, &r.WindowStart, &r.WindowEnd, &r.EventCount, &r.Skipped, &lines,
		&analysis, &r.RemediationJobID, &r.WebhookDelivered, &r.SourceError, &r.WebhookError,
		&r.SummaryError, &r.SMSError, &r.RemedyError, &r.StartedAt, &completedAt, &r.Duration,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan cycle report: %w", err)
	}

	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &r.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal lines: %w", err)
		}
	}
	if len(analysis) > 0 {
		var a analyze.Analysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		r.Analysis = &a
	}
	if completedAt.Valid {
		r.CompletedAt = completedAt.Time
	}
	return &r, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
