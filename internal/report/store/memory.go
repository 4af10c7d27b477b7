package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"reclamacidade/internal/report/models"
	"reclamacidade/pkg/platform/sentinel"
)

// InMemory implements Store with process-local maps. Used in tests and when
// Postgres is not configured.
type InMemory struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.Report
	history map[uuid.UUID][]models.StatusChange
}

func NewInMemory() *InMemory {
	return &InMemory{
		reports: make(map[uuid.UUID]*models.Report),
		history: make(map[uuid.UUID][]models.StatusChange),
	}
}

func (s *InMemory) Create(ctx context.Context, report *models.Report, initial models.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return sentinel.ErrConflict
	}
	s.reports[report.ID] = report.Clone()
	s.history[report.ID] = []models.StatusChange{initial}
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return report.Clone(), nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Report, 0, len(s.reports))
	for _, report := range s.reports {
		out = append(out, report.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) AppendEndorsement(ctx context.Context, id uuid.UUID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if report.Endorsed(identity) {
		return sentinel.ErrAlreadyUsed
	}
	report.EndorsedBy = append(report.EndorsedBy, identity)
	return nil
}

func (s *InMemory) AppendResolutionConfirmation(ctx context.Context, id uuid.UUID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if report.ConfirmedResolution(identity) {
		return sentinel.ErrAlreadyUsed
	}
	report.ResolutionConfirmedBy = append(report.ResolutionConfirmedBy, identity)
	return nil
}

func (s *InMemory) SetStatus(ctx context.Context, id uuid.UUID, status models.Status, change models.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	report.Status = status
	s.history[id] = append(s.history[id], change)
	return nil
}

func (s *InMemory) StatusHistory(ctx context.Context, id uuid.UUID) ([]models.StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.reports[id]; !ok {
		return nil, sentinel.ErrNotFound
	}
	changes := append([]models.StatusChange(nil), s.history[id]...)
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Timestamp.After(changes[j].Timestamp)
	})
	return changes, nil
}

func (s *InMemory) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, report := range s.reports {
		counts[report.Status]++
	}
	return counts, nil
}

func (s *InMemory) CountByCategory(ctx context.Context) (map[models.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Category]int)
	for _, report := range s.reports {
		counts[report.Category]++
	}
	return counts, nil
}

func (s *InMemory) PurgeAnonymous(ctx context.Context) (int64, error) {
	return s.purge(func(r *models.Report) bool {
		return r.Reporter == models.AnonymousReporter
	}), nil
}

func (s *InMemory) PurgeByReporter(ctx context.Context, identity string) (int64, error) {
	return s.purge(func(r *models.Report) bool {
		return r.Reporter == identity
	}), nil
}

func (s *InMemory) purge(match func(*models.Report) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, report := range s.reports {
		if match(report) {
			delete(s.reports, id)
			delete(s.history, id)
			removed++
		}
	}
	return removed
}
