package models

import "reclamacidade/internal/geo"

// CreateReportRequest is the POST /reports body. Coordinate is optional; when
// absent the server falls back to the caller's last published location.
type CreateReportRequest struct {
	Category   Category        `json:"category"`
	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
}

// ProximityActionRequest is the body for endorse and confirm-resolution calls.
// Coordinate is the actor's position snapshot; optional with the same
// fallback as CreateReportRequest.
type ProximityActionRequest struct {
	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
}

// SetStatusRequest is the admin PUT /reports/{id}/status body.
type SetStatusRequest struct {
	Status  Status `json:"status"`
	Comment string `json:"comment,omitempty"`
}
