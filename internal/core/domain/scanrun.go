package domain

import "time"

// ScanType selects how a scan run collects data.
type ScanType string

const (
	// ScanTypeFull walks every drive's full item tree.
	ScanTypeFull ScanType = "full"
	// ScanTypeDelta processes only items reported changed since the
	// stored delta cursor for each drive.
	ScanTypeDelta ScanType = "delta"
)

// RunStatus is the lifecycle state of a scan run.
type RunStatus string

const (
	// RunStatusRunning is set when the run is created.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted is set after every storage root has been processed.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed is set when collection aborts with a fatal error.
	RunStatusFailed RunStatus = "failed"
)

// ScanRun records one audit pass over the tenant.
// Runs are never deleted; they are retained for history and for
// "latest completed" / "latest full" queries.
type ScanRun struct {
	// ID is an opaque unique run identifier.
	ID string

	// StartedAt is when the run was created.
	StartedAt time.Time

	// Type is full or delta. The type is chosen once per run and
	// applies uniformly to every drive in the run.
	Type ScanType

	// Status transitions exactly once, from running to a terminal state.
	Status RunStatus
}

// DeltaCursor is the stored change-feed resumption token for one drive.
// Absence of any cursor across all drives forces a full scan.
type DeltaCursor struct {
	// DriveID identifies the drive the cursor belongs to.
	DriveID string

	// Token is the opaque provider-issued delta link.
	Token string

	// UpdatedAt is when the cursor was last advanced.
	UpdatedAt time.Time
}
