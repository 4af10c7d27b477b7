package models

import dErrors "reclamacidade/pkg/domain-errors"

// Lifecycle error taxonomy. Services return these values directly so callers
// can match with errors.Is; each carries a code for HTTP mapping.
var (
	ErrLocationUnavailable    = dErrors.New(dErrors.CodeBadRequest, "location unavailable")
	ErrAuthenticationRequired = dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	ErrPermissionDenied       = dErrors.New(dErrors.CodeForbidden, "permission denied")
	ErrTooFarFromReport       = dErrors.New(dErrors.CodeForbidden, "you must be within the report's proximity radius")
	ErrSelfEndorsement        = dErrors.New(dErrors.CodeConflict, "reporters cannot endorse their own report")
	ErrAlreadyEndorsed        = dErrors.New(dErrors.CodeConflict, "report already endorsed by this user")
	ErrAlreadyConfirmed       = dErrors.New(dErrors.CodeConflict, "resolution already confirmed by this user")
	ErrInvalidCategory        = dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	ErrInvalidStatus          = dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	ErrReportNotFound         = dErrors.New(dErrors.CodeNotFound, "report not found")
)
