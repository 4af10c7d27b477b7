package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"reclamacidade/internal/report/models"
	"reclamacidade/pkg/platform/sentinel"
)

const (
	supporterKindEndorsement = "endorsement"
	supporterKindResolution  = "resolution"

	// pq error codes
	pqForeignKeyViolation = "23503"
)

// Schema creates the report tables. Idempotent; applied on startup and by
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
	id          UUID PRIMARY KEY,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	category    TEXT NOT NULL,
	reporter    TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS report_supporters (
	report_id   UUID NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	identity    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (report_id, identity, kind)
);

CREATE TABLE IF NOT EXISTS report_status_changes (
	id          BIGSERIAL PRIMARY KEY,
	report_id   UUID NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	status      TEXT NOT NULL,
	comment     TEXT NOT NULL DEFAULT '',
	updated_by  TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_status_changes_report
	ON report_status_changes (report_id, occurred_at DESC);
`

// Postgres implements Store on PostgreSQL. The endorsement and confirmation
// appends rely on the supporters primary key for append-if-absent atomicity,
// so two concurrent endorsements cannot both land.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the report schema.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply report schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, report *models.Report, initial models.StatusChange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create report: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, latitude, longitude, category, reporter, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID, report.Location.Lat, report.Location.Lon,
		string(report.Category), report.Reporter, string(report.Status), report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if err := insertStatusChange(ctx, tx, initial); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create report: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := scanReport(s.db.QueryRowContext(ctx, `
		SELECT id, latitude, longitude, category, reporter, status, created_at
		FROM reports WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}

	if err := s.loadSupporters(ctx, map[uuid.UUID]*models.Report{report.ID: report}); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, category, reporter, status, created_at
		FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*models.Report)
	var out []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		byID[report.ID] = report
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	if err := s.loadSupporters(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) AppendEndorsement(ctx context.Context, id uuid.UUID, identity string) error {
	return s.appendSupporter(ctx, id, identity, supporterKindEndorsement)
}

func (s *Postgres) AppendResolutionConfirmation(ctx context.Context, id uuid.UUID, identity string) error {
	return s.appendSupporter(ctx, id, identity, supporterKindResolution)
}

func (s *Postgres) appendSupporter(ctx context.Context, id uuid.UUID, identity, kind string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO report_supporters (report_id, identity, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (report_id, identity, kind) DO NOTHING`,
		id, identity, kind,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("append %s: %w", kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append %s: %w", kind, err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) SetStatus(ctx context.Context, id uuid.UUID, status models.Status, change models.StatusChange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set status: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE reports SET status = $2 WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}

	if err := insertStatusChange(ctx, tx, change); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set status: %w", err)
	}
	return nil
}

func (s *Postgres) StatusHistory(ctx context.Context, id uuid.UUID) ([]models.StatusChange, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check report: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, status, comment, updated_by, occurred_at
		FROM report_status_changes
		WHERE report_id = $1
		ORDER BY occurred_at DESC, id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	defer rows.Close()

	var changes []models.StatusChange
	for rows.Next() {
		var change models.StatusChange
		var status string
		if err := rows.Scan(&change.ReportID, &status, &change.Comment, &change.UpdatedBy, &change.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		change.Status = models.Status(status)
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	return changes, nil
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

func (s *Postgres) CountByCategory(ctx context.Context) (map[models.Category]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM reports GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Category]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[models.Category(category)] = n
	}
	return counts, rows.Err()
}

func (s *Postgres) PurgeAnonymous(ctx context.Context) (int64, error) {
	return s.purgeWhere(ctx, `reporter = $1`, models.AnonymousReporter)
}

func (s *Postgres) PurgeByReporter(ctx context.Context, identity string) (int64, error) {
	return s.purgeWhere(ctx, `reporter = $1`, identity)
}

func (s *Postgres) purgeWhere(ctx context.Context, where string, args ...any) (int64, error) {
	// Supporters and history rows go with the reports via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	return removed, nil
}

func (s *Postgres) loadSupporters(ctx context.Context, byID map[uuid.UUID]*models.Report) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, identity, kind
		FROM report_supporters
		WHERE report_id = ANY($1)
		ORDER BY created_at ASC`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load supporters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reportID uuid.UUID
		var identity, kind string
		if err := rows.Scan(&reportID, &identity, &kind); err != nil {
			return fmt.Errorf("scan supporter: %w", err)
		}
		report, ok := byID[reportID]
		if !ok {
			continue
		}
		switch kind {
		case supporterKindEndorsement:
			report.EndorsedBy = append(report.EndorsedBy, identity)
		case supporterKindResolution:
			report.ResolutionConfirmedBy = append(report.ResolutionConfirmedBy, identity)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var report models.Report
	var category, status string
	err := row.Scan(&report.ID, &report.Location.Lat, &report.Location.Lon,
		&category, &report.Reporter, &status, &report.CreatedAt)
	if err != nil {
		return nil, err
	}
	report.Category = models.Category(category)
	report.Status = models.Status(status)
	return &report, nil
}

func insertStatusChange(ctx context.Context, tx *sql.Tx, change models.StatusChange) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO report_status_changes (report_id, status, comment, updated_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		change.ReportID, string(change.Status), change.Comment, change.UpdatedBy, change.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}
