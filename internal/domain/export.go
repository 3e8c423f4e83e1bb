package domain

import "time"

// ExportState is the lifecycle of one day's export run.
type ExportState string

const (
	ExportIdle      ExportState = "IDLE"
	ExportExporting ExportState = "EXPORTING"
	ExportDelivered ExportState = "DELIVERED"
	ExportFailed    ExportState = "FAILED"
)

// Terminal reports whether no further transition will happen.
func (s ExportState) Terminal() bool {
	return s == ExportDelivered || s == ExportFailed
}

// ExportFile is one serialized file of a snapshot.
type ExportFile struct {
	Name    string
	Content []byte
}

// ExportSnapshot holds everything exported for a day. It is handed to the
// delivery collaborator and not kept afterwards.
type ExportSnapshot struct {
	CreatedAt  time.Time
	RunID      string
	Files      []ExportFile
	Day        Day
	EntryCount int
}

// ExportRun describes the latest run for a day.
type ExportRun struct {
	StartedAt  time.Time
	FinishedAt *time.Time
	ID         string
	State      ExportState
	Error      string
	Day        Day
	EntryCount int
}
