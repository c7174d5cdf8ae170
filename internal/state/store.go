// Package state records extraction run history in a local SQLite
// database. The store is an optional convenience: every caller treats
// open or write failures as non-fatal and keeps going without history.
package state

import "time"

// Status is the lifecycle state of one extraction run.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Run is one extraction run. Counts and the final status are filled in
// by CompleteRun; CompletedAt stays zero while the run is in flight.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Status      Status    `json:"status"`
	Databases   int       `json:"databases"`
	Tables      int       `json:"tables"`
	Columns     int       `json:"columns"`
	Enriched    int       `json:"enriched"`
	OutputPath  string    `json:"output_path"`
	Error       string    `json:"error,omitempty"`
}
