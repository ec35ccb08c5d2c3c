package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/metrics"
)

// grantSink classifies raw permissions and merges the resulting grants
// into the store for one storage root. Store errors are fatal for the
// run; the callers absorb provider errors before reaching the sink.
type grantSink struct {
	store driven.GraphStore
	cls   *classify.Classifier

	runID      string
	siteID     string
	ownerEmail string

	// attributeGrantor fills GrantedBy from the permission, falling
	// back to the root owner. Full walks leave attribution empty.
	attributeGrantor bool

	grants int
}

// recordItem merges one item's permissions. The file node is written
// only when the item carries at least one recordable grant, so files
// shared solely with their owner never enter the store.
func (s *grantSink) recordItem(
	ctx context.Context,
	driveID string,
	item *domain.DriveItem,
	itemPath string,
	perms []domain.Permission,
) error {
	for i := range perms {
		perm := &perms[i]

		sharingType := classify.SharingTypeOf(perm)
		audience := s.cls.AudienceOf(perm)
		role := classify.RoleOf(perm)

		// The owner's own grant on their files is not an exposure.
		if role == domain.RoleOwner && audience.Label == s.ownerEmail {
			continue
		}

		email := audience.Label
		switch {
		case audience.Type == domain.AudienceAnonymous:
			email = domain.PrincipalAnonymous
		case sharingType == domain.SharingLinkOrganization:
			email = domain.PrincipalOrganization
		}

		risk := s.cls.RiskLevelFor(sharingType, audience.Type, itemPath)

		file := domain.File{
			DriveID: driveID,
			ItemID:  item.ID,
			Path:    itemPath,
			WebURL:  item.WebURL,
			Type:    item.Type(),
		}
		if err := s.store.MergeFile(ctx, file); err != nil {
			return fmt.Errorf("merge file %s: %w", itemPath, err)
		}

		principal := domain.Principal{
			Email:       email,
			DisplayName: audience.Label,
			Origin:      string(audience.Type),
		}
		if err := s.store.MergePrincipal(ctx, principal); err != nil {
			return fmt.Errorf("merge principal %s: %w", email, err)
		}

		var grantedBy string
		if s.attributeGrantor {
			grantedBy = classify.GrantedByOf(perm)
			if grantedBy == "" {
				grantedBy = s.ownerEmail
			}
		}

		grant := domain.SharingGrant{
			DriveID:         driveID,
			ItemID:          item.ID,
			PrincipalEmail:  email,
			SharingType:     sharingType,
			AudienceType:    audience.Type,
			Role:            role,
			RiskLevel:       risk,
			CreatedDateTime: perm.CreatedDateTime,
			LastSeenRunID:   s.runID,
			GrantedBy:       grantedBy,
		}
		if err := s.store.MergeGrant(ctx, grant); err != nil {
			return fmt.Errorf("merge grant %s: %w", itemPath, err)
		}

		if err := s.store.MergeContains(ctx, s.siteID, driveID, item.ID); err != nil {
			return fmt.Errorf("merge contains %s: %w", itemPath, err)
		}
		if err := s.store.MarkFileFound(ctx, driveID, item.ID, s.runID); err != nil {
			return fmt.Errorf("mark file found %s: %w", itemPath, err)
		}

		s.grants++
		metrics.GrantsRecorded.Inc()
	}
	return nil
}
