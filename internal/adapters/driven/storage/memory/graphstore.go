// Package memory provides an in-memory GraphStore used by tests and
// by dry-run scans that should not touch the database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
)

// Ensure GraphStore implements the interface.
var _ driven.GraphStore = (*GraphStore)(nil)

var riskOrder = map[domain.RiskLevel]int{
	domain.RiskHigh:   0,
	domain.RiskMedium: 1,
	domain.RiskLow:    2,
}

// GraphStore is an in-memory implementation of driven.GraphStore.
// Grant insertion order is preserved so reads are deterministic.
type GraphStore struct {
	mu sync.RWMutex

	runs       map[string]domain.ScanRun
	principals map[string]domain.Principal
	sites      map[string]domain.Site
	files      map[string]domain.File

	grants     map[string]domain.SharingGrant
	grantOrder []string

	contains   map[string]string
	siteOwners map[string][]string
	found      map[string]map[string]bool
	cursors    map[string]domain.DeltaCursor
}

// NewGraphStore creates a new in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		runs:       make(map[string]domain.ScanRun),
		principals: make(map[string]domain.Principal),
		sites:      make(map[string]domain.Site),
		files:      make(map[string]domain.File),
		grants:     make(map[string]domain.SharingGrant),
		contains:   make(map[string]string),
		siteOwners: make(map[string][]string),
		found:      make(map[string]map[string]bool),
		cursors:    make(map[string]domain.DeltaCursor),
	}
}

func fileKey(driveID, itemID string) string {
	return driveID + ":" + itemID
}

func grantKey(driveID, itemID, email string) string {
	return driveID + ":" + itemID + ":" + email
}

// CreateRun records a new scan run.
func (s *GraphStore) CreateRun(_ context.Context, run domain.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.runs[run.ID] = run
	return nil
}

// CompleteRun marks a run completed.
func (s *GraphStore) CompleteRun(_ context.Context, runID string) error {
	return s.setRunStatus(runID, domain.RunStatusCompleted)
}

// FailRun marks a run failed.
func (s *GraphStore) FailRun(_ context.Context, runID string) error {
	return s.setRunStatus(runID, domain.RunStatusFailed)
}

func (s *GraphStore) setRunStatus(runID string, status domain.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrNotFound
	}
	run.Status = status
	s.runs[runID] = run
	return nil
}

// ListRuns returns all runs, newest first.
func (s *GraphStore) ListRuns(_ context.Context) ([]domain.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ScanRun, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

// LatestCompletedRun returns the most recent completed run.
func (s *GraphStore) LatestCompletedRun(_ context.Context) (*domain.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.ScanRun
	for _, run := range s.runs {
		if run.Status != domain.RunStatusCompleted {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			copied := run
			latest = &copied
		}
	}
	if latest == nil {
		return nil, domain.ErrNoCompletedRun
	}
	return latest, nil
}

// LatestFullScanTime returns the start of the latest completed full scan.
func (s *GraphStore) LatestFullScanTime(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	found := false
	for _, run := range s.runs {
		if run.Status != domain.RunStatusCompleted || run.Type != domain.ScanTypeFull {
			continue
		}
		if !found || run.StartedAt.After(latest) {
			latest = run.StartedAt
			found = true
		}
	}
	if !found {
		return time.Time{}, domain.ErrNotFound
	}
	return latest, nil
}

// MergePrincipal upserts a principal.
func (s *GraphStore) MergePrincipal(_ context.Context, p domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.Email] = p
	return nil
}

// MergeSite upserts a site.
func (s *GraphStore) MergeSite(_ context.Context, site domain.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[site.ID] = site
	return nil
}

// MergeFile upserts a file, preserving any tombstone fields.
func (s *GraphStore) MergeFile(_ context.Context, f domain.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fileKey(f.DriveID, f.ItemID)
	if existing, ok := s.files[key]; ok && f.DeletedAt == nil {
		f.DeletedAt = existing.DeletedAt
		f.DeletedByRunID = existing.DeletedByRunID
	}
	s.files[key] = f
	return nil
}

// MergeGrant upserts a grant. The file and principal must already be
// merged.
func (s *GraphStore) MergeGrant(_ context.Context, g domain.SharingGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[fileKey(g.DriveID, g.ItemID)]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.principals[g.PrincipalEmail]; !ok {
		return domain.ErrNotFound
	}
	key := grantKey(g.DriveID, g.ItemID, g.PrincipalEmail)
	if _, ok := s.grants[key]; !ok {
		s.grantOrder = append(s.grantOrder, key)
	}
	s.grants[key] = g
	return nil
}

// MergeContains links a site to a file.
func (s *GraphStore) MergeContains(_ context.Context, siteID, driveID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[siteID]; !ok {
		return domain.ErrNotFound
	}
	key := fileKey(driveID, itemID)
	if _, ok := s.files[key]; !ok {
		return domain.ErrNotFound
	}
	s.contains[key] = siteID
	return nil
}

// MergeOwns links an owning principal to a site.
func (s *GraphStore) MergeOwns(_ context.Context, ownerEmail, siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[ownerEmail]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.sites[siteID]; !ok {
		return domain.ErrNotFound
	}
	for _, email := range s.siteOwners[siteID] {
		if email == ownerEmail {
			return nil
		}
	}
	s.siteOwners[siteID] = append(s.siteOwners[siteID], ownerEmail)
	return nil
}

// MarkFileFound links a file to the run that observed it.
func (s *GraphStore) MarkFileFound(_ context.Context, driveID, itemID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return domain.ErrNotFound
	}
	key := fileKey(driveID, itemID)
	if _, ok := s.files[key]; !ok {
		return domain.ErrNotFound
	}
	if s.found[runID] == nil {
		s.found[runID] = make(map[string]bool)
	}
	s.found[runID][key] = true
	return nil
}

// RemoveFileGrants deletes a file's grants and tombstones the file.
// Unknown files are a no-op: the change feed reports deletions of
// items that were never shared.
func (s *GraphStore) RemoveFileGrants(_ context.Context, driveID, itemID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fileKey(driveID, itemID)
	file, ok := s.files[key]
	if !ok {
		return nil
	}
	s.deleteGrantsLocked(driveID, itemID)
	now := time.Now().UTC()
	file.DeletedAt = &now
	file.DeletedByRunID = runID
	s.files[key] = file
	return nil
}

// PurgeGrants deletes a file's grants without tombstoning.
func (s *GraphStore) PurgeGrants(_ context.Context, driveID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteGrantsLocked(driveID, itemID)
	return nil
}

func (s *GraphStore) deleteGrantsLocked(driveID, itemID string) {
	prefix := fileKey(driveID, itemID) + ":"
	remaining := s.grantOrder[:0]
	for _, key := range s.grantOrder {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.grants, key)
			continue
		}
		remaining = append(remaining, key)
	}
	s.grantOrder = remaining
}

// SaveDeltaCursor stores or overwrites a drive's cursor.
func (s *GraphStore) SaveDeltaCursor(_ context.Context, c domain.DeltaCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[c.DriveID] = c
	return nil
}

// GetDeltaCursor returns the cursor for a drive.
func (s *GraphStore) GetDeltaCursor(_ context.Context, driveID string) (*domain.DeltaCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[driveID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// HasDeltaCursors reports whether any cursor is stored.
func (s *GraphStore) HasDeltaCursors(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cursors) > 0, nil
}

// SharingRecords returns every grant last confirmed by the run, joined
// with file, principal, site, and optional owner.
func (s *GraphStore) SharingRecords(_ context.Context, runID string) ([]domain.SharingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsLocked(runID, ""), nil
}

// OwnerSharingRecords restricts SharingRecords to sites owned by the
// principal.
func (s *GraphStore) OwnerSharingRecords(_ context.Context, ownerEmail, runID string) ([]domain.SharingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsLocked(runID, ownerEmail), nil
}

func (s *GraphStore) recordsLocked(runID, ownerFilter string) []domain.SharingRecord {
	var records []domain.SharingRecord
	for _, key := range s.grantOrder {
		g := s.grants[key]
		if g.LastSeenRunID != runID {
			continue
		}
		fk := fileKey(g.DriveID, g.ItemID)
		file, ok := s.files[fk]
		if !ok {
			continue
		}
		siteID, ok := s.contains[fk]
		if !ok {
			continue
		}
		site := s.sites[siteID]

		ownerEmail, ownerName := "", ""
		if owners := s.siteOwners[siteID]; len(owners) > 0 {
			ownerEmail = owners[0]
			ownerName = s.principals[ownerEmail].DisplayName
		}
		if ownerFilter != "" && !s.ownsLocked(ownerFilter, siteID) {
			continue
		}
		if ownerFilter != "" {
			ownerEmail = ownerFilter
			ownerName = s.principals[ownerFilter].DisplayName
		}

		principal := s.principals[g.PrincipalEmail]
		records = append(records, domain.SharingRecord{
			DriveID:         g.DriveID,
			ItemID:          g.ItemID,
			RiskLevel:       g.RiskLevel,
			Source:          site.Source,
			ItemPath:        file.Path,
			ItemWebURL:      file.WebURL,
			ItemType:        file.Type,
			SharingType:     g.SharingType,
			SharedWith:      g.PrincipalEmail,
			SharedWithName:  principal.DisplayName,
			AudienceType:    g.AudienceType,
			Role:            g.Role,
			CreatedDateTime: g.CreatedDateTime,
			GrantedBy:       g.GrantedBy,
			OwnerEmail:      ownerEmail,
			OwnerName:       ownerName,
			SiteName:        site.Name,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := riskOrder[records[i].RiskLevel], riskOrder[records[j].RiskLevel]
		if ri != rj {
			return ri < rj
		}
		if records[i].OwnerEmail != records[j].OwnerEmail {
			return records[i].OwnerEmail < records[j].OwnerEmail
		}
		return records[i].ItemPath < records[j].ItemPath
	})
	return records
}

func (s *GraphStore) ownsLocked(ownerEmail, siteID string) bool {
	for _, email := range s.siteOwners[siteID] {
		if email == ownerEmail {
			return true
		}
	}
	return false
}

// Close is a no-op.
func (s *GraphStore) Close() error {
	return nil
}
