package domain

import "time"

// ExportEvent announces a finished export to downstream consumers on the
// completion topic.
type ExportEvent struct {
	ID           string    `json:"id"`
	County       string    `json:"county"`
	Variable     string    `json:"variable"`
	Aggregation  string    `json:"aggregation"`
	Simulation   string    `json:"simulation"`
	WarmingLevel float64   `json:"warming_level"`
	CenteredYear int       `json:"centered_year"`
	OutputPath   string    `json:"output_path"`
	FirstYear    int       `json:"first_year"`
	LastYear     int       `json:"last_year"`
	TestPoints   int       `json:"test_points"`
	CompletedAt  time.Time `json:"completed_at"`
}
