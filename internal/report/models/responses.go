package models

// Summary aggregates report counts for the admin dashboard.
type Summary struct {
	Total      int                   `json:"total"`
	ByStatus   map[Status]int        `json:"by_status"`
	ByCategory map[Category]int      `json:"by_category"`
	ByGroup    map[CategoryGroup]int `json:"by_group"`
}

// PurgeResult reports how many records an admin purge removed.
type PurgeResult struct {
	ReportsRemoved int64 `json:"reports_removed"`
}
