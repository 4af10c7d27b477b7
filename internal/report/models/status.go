package models

// Status is the lifecycle stage of a report. The organic path is driven by
// endorsement and confirmation counts; administrators may force any value.
type Status string

const (
	StatusReported      Status = "REPORTED"
	StatusUnderAnalysis Status = "UNDER_ANALYSIS"
	StatusVerified      Status = "VERIFIED"
	StatusInProgress    Status = "IN_PROGRESS"
	StatusResolved      Status = "RESOLVED"
	StatusClosed        Status = "CLOSED"
	StatusReopened      Status = "REOPENED"
)

var allStatuses = map[Status]struct{}{
	StatusReported:      {},
	StatusUnderAnalysis: {},
	StatusVerified:      {},
	StatusInProgress:    {},
	StatusResolved:      {},
	StatusClosed:        {},
	StatusReopened:      {},
}

// Valid reports whether s is a member of the closed status enumeration.
func (s Status) Valid() bool {
	_, ok := allStatuses[s]
	return ok
}

// PastResolution reports whether the lifecycle already reached RESOLVED or
// beyond; the first-confirmation trigger must not regress such reports.
func (s Status) PastResolution() bool {
	return s == StatusResolved || s == StatusClosed
}
