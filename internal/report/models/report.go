package models

import (
	"time"

	"github.com/google/uuid"

	"reclamacidade/internal/geo"
)

// AnonymousReporter is the sentinel identity for the legacy unauthenticated
// creation path. Anonymous reports can be bulk-purged by administrators.
const AnonymousReporter = "anonymous"

// Report is a single geotagged urban-problem submission.
//
// ID, Location, Category, Reporter and CreatedAt are immutable after creation.
// Status changes only through the lifecycle service; EndorsedBy and
// ResolutionConfirmedBy are append-only with each identity at most once.
type Report struct {
	ID        uuid.UUID      `json:"id"`
	Location  geo.Coordinate `json:"location"`
	Category  Category       `json:"category"`
	Reporter  string         `json:"reporter"`
	CreatedAt time.Time      `json:"created_at"`

	Status                Status   `json:"status"`
	EndorsedBy            []string `json:"endorsed_by"`
	ResolutionConfirmedBy []string `json:"resolution_confirmed_by"`
}

// Endorsed reports whether identity already endorsed the report.
func (r *Report) Endorsed(identity string) bool {
	return contains(r.EndorsedBy, identity)
}

// ConfirmedResolution reports whether identity already confirmed resolution.
func (r *Report) ConfirmedResolution(identity string) bool {
	return contains(r.ResolutionConfirmedBy, identity)
}

// Clone returns a deep copy so store reads never alias internal state.
func (r *Report) Clone() *Report {
	cp := *r
	cp.EndorsedBy = append([]string(nil), r.EndorsedBy...)
	cp.ResolutionConfirmedBy = append([]string(nil), r.ResolutionConfirmedBy...)
	return &cp
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// StatusChange is an immutable audit record of one status transition.
// History reads return most recent first.
type StatusChange struct {
	ReportID  uuid.UUID `json:"report_id"`
	Status    Status    `json:"status"`
	Comment   string    `json:"comment,omitempty"`
	UpdatedBy string    `json:"updated_by"`
	Timestamp time.Time `json:"timestamp"`
}
