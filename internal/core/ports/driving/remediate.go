package driving

import "context"

// UnshareFailure is a structured, user-actionable failure record for
// one file.
type UnshareFailure struct {
	// ID is the "driveID:itemID" composite key.
	ID string
	// Reason is a stable code: ACCESS_DENIED, NOT_FOUND, THROTTLED,
	// VERIFICATION_FAILED, UNKNOWN.
	Reason string
	// Message describes what went wrong.
	Message string
	// Action suggests what the user can do about it.
	Action string
}

// UnshareOutcome partitions a bulk request into verified successes and
// failures. A file counts as succeeded only when every removable
// permission was deleted and a verification read-back found none
// remaining.
type UnshareOutcome struct {
	Succeeded []string
	Failed    []UnshareFailure
}

// RemediationService removes sharing from files on behalf of a
// dashboard user.
type RemediationService interface {
	// Unshare removes all removable permissions from each file,
	// sequentially with pacing, using the user's delegated token.
	Unshare(ctx context.Context, accessToken string, fileIDs []string) (*UnshareOutcome, error)
}
