package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrScanInProgress indicates a scan is already running.
	ErrScanInProgress = errors.New("scan in progress")

	// ErrNoCompletedRun indicates no completed scan run exists yet.
	// Reports and the dashboard require at least one completed run.
	ErrNoCompletedRun = errors.New("no completed scan run")

	// Authentication Errors.

	// ErrAuthRequired indicates credentials are not configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the authentication has expired and refresh failed.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Provider Errors.

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAccessDenied indicates the caller lacks permission for a
	// provider mutation, typically during remediation.
	ErrAccessDenied = errors.New("access denied")

	// ErrDriveUnavailable indicates a principal has no provisioned drive.
	// Not every licensed account has a personal drive; callers skip these.
	ErrDriveUnavailable = errors.New("drive unavailable")
)
