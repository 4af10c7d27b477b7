// Package store defines the report persistence boundary. Implementations must
// provide atomic append-if-absent semantics for endorsements and resolution
// confirmations so concurrent callers cannot race a duplicate in.
package store

import (
	"context"

	"github.com/google/uuid"

	"reclamacidade/internal/report/models"
)

// Store is interface-driven to keep the lifecycle service testable and to
// allow swapping in-memory and PostgreSQL persistence without rewiring
// business code.
//
// Not-found conditions surface as sentinel.ErrNotFound; duplicate appends as
// sentinel.ErrAlreadyUsed. The service translates both into domain errors.
type Store interface {
	// Create persists a new report together with its initial status-change
	// record.
	Create(ctx context.Context, report *models.Report, initial models.StatusChange) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error)

	// List returns all reports, newest first.
	List(ctx context.Context) ([]*models.Report, error)

	// AppendEndorsement atomically adds identity to the report's endorsement
	// set if absent.
	AppendEndorsement(ctx context.Context, id uuid.UUID, identity string) error

	// AppendResolutionConfirmation atomically adds identity to the report's
	// resolution confirmation set if absent.
	AppendResolutionConfirmation(ctx context.Context, id uuid.UUID, identity string) error

	// SetStatus updates the report status and appends the status-change
	// record in one store call.
	SetStatus(ctx context.Context, id uuid.UUID, status models.Status, change models.StatusChange) error

	// StatusHistory returns the report's status changes, most recent first.
	StatusHistory(ctx context.Context, id uuid.UUID) ([]models.StatusChange, error)

	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	CountByCategory(ctx context.Context) (map[models.Category]int, error)

	// PurgeAnonymous removes all reports created through the anonymous path,
	// including their history. Returns the number of reports removed.
	PurgeAnonymous(ctx context.Context) (int64, error)

	// PurgeByReporter removes all reports created by one identity, including
	// their history. Returns the number of reports removed.
	PurgeByReporter(ctx context.Context, identity string) (int64, error)
}
