package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
	"github.com/custodia-labs/sharewatch-cli/internal/metrics"
)

// interFileDelay paces sequential unshare calls to stay under the
// provider's mutation rate limits.
const interFileDelay = 500 * time.Millisecond

// Ensure Remediator implements the interface.
var _ driving.RemediationService = (*Remediator)(nil)

// Remediator removes sharing from files on behalf of a dashboard user,
// strictly sequentially. Files are independent: one failure never
// blocks the rest of the batch.
type Remediator struct {
	remover driven.PermissionRemover
	store   driven.GraphStore
}

// NewRemediator creates a remediation service.
func NewRemediator(remover driven.PermissionRemover, store driven.GraphStore) *Remediator {
	return &Remediator{remover: remover, store: store}
}

// Unshare removes all removable permissions from each file. A file
// succeeds only when every deletion went through and a verification
// read-back found no removable permissions remaining. Verified files
// have their stored grants purged so the dashboard reflects the new
// state immediately.
func (r *Remediator) Unshare(ctx context.Context, accessToken string, fileIDs []string) (*driving.UnshareOutcome, error) {
	outcome := &driving.UnshareOutcome{}

	for i, fileID := range fileIDs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interFileDelay):
			}
		}

		driveID, itemID, ok := strings.Cut(fileID, ":")
		if !ok || driveID == "" || itemID == "" {
			outcome.Failed = append(outcome.Failed, driving.UnshareFailure{
				ID:      fileID,
				Reason:  "UNKNOWN",
				Message: "Malformed file identifier",
				Action:  "Refresh the page and try again",
			})
			metrics.UnshareFiles.WithLabelValues("failed").Inc()
			continue
		}

		if failure := r.unshareOne(ctx, accessToken, fileID, driveID, itemID); failure != nil {
			logger.Warn("Unshare failed for %s: %s", fileID, failure.Message)
			outcome.Failed = append(outcome.Failed, *failure)
			metrics.UnshareFiles.WithLabelValues("failed").Inc()
			continue
		}

		if err := r.store.PurgeGrants(ctx, driveID, itemID); err != nil {
			// The upstream state is already fixed; a stale store row
			// self-heals on the next scan.
			logger.Warn("Store cleanup failed for %s: %v", fileID, err)
		}
		outcome.Succeeded = append(outcome.Succeeded, fileID)
		metrics.UnshareFiles.WithLabelValues("succeeded").Inc()
		logger.Info("Unshared %s (verified)", fileID)
	}

	return outcome, nil
}

// unshareOne removes and verifies one file. Returns nil on verified
// success.
func (r *Remediator) unshareOne(ctx context.Context, accessToken, fileID, driveID, itemID string) *driving.UnshareFailure {
	perms, err := r.remover.ListItemPermissions(ctx, accessToken, driveID, itemID)
	if err != nil {
		return classifyUnshareError(fileID, err)
	}

	failedDeletes := 0
	var firstFailure *driving.UnshareFailure
	for i := range perms {
		perm := &perms[i]
		if !removable(perm) {
			continue
		}
		if err := r.remover.DeletePermission(ctx, accessToken, driveID, itemID, perm.ID); err != nil {
			failedDeletes++
			if firstFailure == nil {
				firstFailure = classifyUnshareError(fileID, err)
			}
		}
	}
	if firstFailure != nil {
		firstFailure.Message = fmt.Sprintf("%d permissions failed: %s", failedDeletes, firstFailure.Message)
		return firstFailure
	}

	remaining, err := r.remover.ListItemPermissions(ctx, accessToken, driveID, itemID)
	if err != nil {
		return &driving.UnshareFailure{
			ID:      fileID,
			Reason:  "VERIFICATION_FAILED",
			Message: fmt.Sprintf("Could not verify removal: %v", err),
			Action:  "Check the file directly in SharePoint",
		}
	}
	for i := range remaining {
		if removable(&remaining[i]) {
			return &driving.UnshareFailure{
				ID:      fileID,
				Reason:  "VERIFICATION_FAILED",
				Message: "Permissions still present after removal",
				Action:  "Check the file directly in SharePoint",
			}
		}
	}
	return nil
}

// removable reports whether a permission can be deleted: inherited
// grants must be removed at their source, and the owner grant is not
// deletable at all.
func removable(p *domain.Permission) bool {
	return !p.Inherited() && !slices.Contains(p.Roles, "owner")
}

// classifyUnshareError maps a provider error to a stable reason code
// with a user-actionable suggestion.
func classifyUnshareError(fileID string, err error) *driving.UnshareFailure {
	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		return &driving.UnshareFailure{
			ID:      fileID,
			Reason:  "ACCESS_DENIED",
			Message: "Insufficient permissions to modify sharing",
			Action:  "Ask a site admin to remove sharing for this file",
		}
	case errors.Is(err, domain.ErrNotFound):
		return &driving.UnshareFailure{
			ID:      fileID,
			Reason:  "NOT_FOUND",
			Message: "File or permission no longer exists",
			Action:  "It may have already been removed, refresh the page",
		}
	case errors.Is(err, domain.ErrRateLimited):
		return &driving.UnshareFailure{
			ID:      fileID,
			Reason:  "THROTTLED",
			Message: "Provider rate limit exceeded",
			Action:  "Wait a few minutes and try again",
		}
	default:
		return &driving.UnshareFailure{
			ID:      fileID,
			Reason:  "UNKNOWN",
			Message: fmt.Sprintf("Unexpected error: %v", err),
			Action:  "Check the file directly in SharePoint",
		}
	}
}
