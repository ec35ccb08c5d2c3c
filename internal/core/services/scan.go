package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
	"github.com/custodia-labs/sharewatch-cli/internal/metrics"
)

// Ensure ScanOrchestrator implements the interface.
var _ driving.ScanService = (*ScanOrchestrator)(nil)

// ScanOrchestrator coordinates audit runs: mode selection, the
// personal-drive pass, the team-site pass, and run lifecycle.
type ScanOrchestrator struct {
	dir       driven.DirectoryService
	store     driven.GraphStore
	sensitive *classify.Matcher

	// fullScanInterval bounds delta-cursor staleness: when the last
	// completed full scan is older than this, the next run is full.
	fullScanInterval time.Duration

	mu     sync.RWMutex
	active *driving.ScanStatus
}

// NewScanOrchestrator creates a scan orchestrator. A nil matcher
// disables path sensitivity.
func NewScanOrchestrator(
	dir driven.DirectoryService,
	store driven.GraphStore,
	sensitive *classify.Matcher,
	fullScanInterval time.Duration,
) *ScanOrchestrator {
	return &ScanOrchestrator{
		dir:              dir,
		store:            store,
		sensitive:        sensitive,
		fullScanInterval: fullScanInterval,
	}
}

// Scan executes one audit run.
func (o *ScanOrchestrator) Scan(ctx context.Context, opts driving.ScanOptions) (*driving.ScanResult, error) {
	tenantDomain, err := o.dir.TenantDomain(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant domain: %w", err)
	}
	logger.Info("Tenant domain: %s", tenantDomain)
	cls := classify.New(tenantDomain, o.sensitive)

	scanType, err := o.selectMode(ctx, opts.ForceFull)
	if err != nil {
		return nil, err
	}

	run := domain.ScanRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Type:      scanType,
		Status:    domain.RunStatusRunning,
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	logger.Info("Scan run %s (%s)", run.ID, scanType)

	status := &driving.ScanStatus{Running: true, RunID: run.ID, ScanType: scanType}
	if err := o.setActive(status); err != nil {
		return nil, err
	}
	defer o.clearActive()

	if err := o.collect(ctx, cls, run.ID, scanType, opts, status); err != nil {
		if failErr := o.store.FailRun(ctx, run.ID); failErr != nil {
			logger.Error("Could not mark run %s failed: %v", run.ID, failErr)
		}
		metrics.ScanRuns.WithLabelValues(string(scanType), string(domain.RunStatusFailed)).Inc()
		return nil, err
	}

	if err := o.store.CompleteRun(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}
	metrics.ScanRuns.WithLabelValues(string(scanType), string(domain.RunStatusCompleted)).Inc()
	logger.Info("Collection complete: %d grants, %d item errors", status.GrantsRecorded, status.ErrorCount)

	return &driving.ScanResult{
		RunID:          run.ID,
		ScanType:       scanType,
		GrantsRecorded: status.GrantsRecorded,
		ErrorCount:     status.ErrorCount,
	}, nil
}

// Status returns progress of the current run, or an idle status.
func (o *ScanOrchestrator) Status(_ context.Context) (*driving.ScanStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.active != nil {
		copied := *o.active
		return &copied, nil
	}
	return &driving.ScanStatus{Running: false}, nil
}

// selectMode picks full or delta. Any condition that makes delta
// unsound forces full: an explicit request, no stored cursors, no
// completed full scan, or a full scan older than the interval.
func (o *ScanOrchestrator) selectMode(ctx context.Context, forceFull bool) (domain.ScanType, error) {
	if forceFull {
		return domain.ScanTypeFull, nil
	}

	hasCursors, err := o.store.HasDeltaCursors(ctx)
	if err != nil {
		return "", fmt.Errorf("check delta cursors: %w", err)
	}
	if !hasCursors {
		return domain.ScanTypeFull, nil
	}

	lastFull, err := o.store.LatestFullScanTime(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ScanTypeFull, nil
	}
	if err != nil {
		return "", fmt.Errorf("check last full scan: %w", err)
	}
	if time.Since(lastFull) > o.fullScanInterval {
		logger.Info("Last full scan %s is stale, forcing full scan", lastFull.Format(time.RFC3339))
		return domain.ScanTypeFull, nil
	}

	return domain.ScanTypeDelta, nil
}

func (o *ScanOrchestrator) collect(
	ctx context.Context,
	cls *classify.Classifier,
	runID string,
	scanType domain.ScanType,
	opts driving.ScanOptions,
	status *driving.ScanStatus,
) error {
	logger.Section("OneDrive audit")
	if err := o.collectPersonalDrives(ctx, cls, runID, scanType, opts.Accounts, status); err != nil {
		return err
	}

	if opts.SkipSites {
		logger.Info("Skipping team-site audit")
		return nil
	}
	logger.Section("SharePoint audit")
	return o.collectSites(ctx, cls, runID, scanType, status)
}

// collectPersonalDrives audits every licensed account's personal
// drive. A missing or inaccessible drive skips the account; everything
// else about the account pass is fatal only on store failure.
func (o *ScanOrchestrator) collectPersonalDrives(
	ctx context.Context,
	cls *classify.Classifier,
	runID string,
	scanType domain.ScanType,
	accountFilter []string,
	status *driving.ScanStatus,
) error {
	accounts, err := o.dir.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accountFilter) > 0 {
		accounts = slices.DeleteFunc(accounts, func(a domain.Account) bool {
			return !slices.Contains(accountFilter, a.UserPrincipalName)
		})
		logger.Info("Filtered to %d accounts", len(accounts))
	}
	logger.Info("Found %d accounts", len(accounts))

	for i, acct := range accounts {
		logger.Info("[%d/%d] OneDrive: %s (%s)", i+1, len(accounts), acct.DisplayName, acct.UserPrincipalName)

		drive, err := o.dir.GetAccountDrive(ctx, acct.ID)
		if err != nil {
			if errors.Is(err, domain.ErrDriveUnavailable) {
				logger.Warn("No personal drive for %s, skipping", acct.UserPrincipalName)
			} else {
				logger.Warn("Could not resolve drive for %s: %v", acct.UserPrincipalName, err)
				o.addProgress(status, 0, 1)
			}
			continue
		}

		siteID := "onedrive-" + acct.ID
		owner := domain.Principal{
			Email:       acct.UserPrincipalName,
			DisplayName: acct.DisplayName,
			Origin:      "internal",
		}
		if err := o.store.MergePrincipal(ctx, owner); err != nil {
			return fmt.Errorf("merge owner %s: %w", owner.Email, err)
		}
		site := domain.Site{
			ID:     siteID,
			Name:   acct.DisplayName,
			WebURL: drive.WebURL,
			Source: domain.SourceOneDrive,
		}
		if err := o.store.MergeSite(ctx, site); err != nil {
			return fmt.Errorf("merge site %s: %w", siteID, err)
		}
		if err := o.store.MergeOwns(ctx, owner.Email, siteID); err != nil {
			return fmt.Errorf("merge owns %s: %w", siteID, err)
		}

		if err := o.scanDrive(ctx, cls, runID, scanType, drive.ID, siteID, owner.Email, status); err != nil {
			return err
		}
	}
	return nil
}

// collectSites audits every team site's document libraries. Personal
// sites and unnamed system sites are excluded; owners are attributed
// best effort from each library's owner facet.
func (o *ScanOrchestrator) collectSites(
	ctx context.Context,
	cls *classify.Classifier,
	runID string,
	scanType domain.ScanType,
	status *driving.ScanStatus,
) error {
	sites, err := o.dir.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("list sites: %w", err)
	}
	sites = slices.DeleteFunc(sites, func(s domain.SiteInfo) bool {
		return strings.Contains(s.WebURL, "-my.sharepoint.com") || s.DisplayName == ""
	})
	logger.Info("Found %d team sites to audit", len(sites))

	for i, info := range sites {
		logger.Info("[%d/%d] SharePoint: %s", i+1, len(sites), info.DisplayName)

		site := domain.Site{
			ID:     info.ID,
			Name:   info.DisplayName,
			WebURL: info.WebURL,
			Source: domain.SourceSharePoint,
		}
		if err := o.store.MergeSite(ctx, site); err != nil {
			return fmt.Errorf("merge site %s: %w", info.ID, err)
		}

		drives, err := o.dir.ListSiteDrives(ctx, info.ID)
		if err != nil {
			logger.Warn("Could not access drives for site %s: %v", info.DisplayName, err)
			o.addProgress(status, 0, 1)
			continue
		}

		for _, drive := range drives {
			ownerEmail := ""
			if drive.Owner != nil && drive.Owner.User != nil && drive.Owner.User.Email != "" {
				ownerEmail = drive.Owner.User.Email
				owner := domain.Principal{
					Email:       ownerEmail,
					DisplayName: drive.Owner.User.DisplayName,
					Origin:      "internal",
				}
				if err := o.store.MergePrincipal(ctx, owner); err != nil {
					return fmt.Errorf("merge owner %s: %w", ownerEmail, err)
				}
				if err := o.store.MergeOwns(ctx, ownerEmail, info.ID); err != nil {
					return fmt.Errorf("merge owns %s: %w", info.ID, err)
				}
			}

			if err := o.scanDrive(ctx, cls, runID, scanType, drive.ID, info.ID, ownerEmail, status); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanDrive runs one drive in the mode chosen for the run. Delta mode
// with no stored cursor passes an empty cursor: the provider responds
// with a fresh enumeration and issues an initial cursor.
func (o *ScanOrchestrator) scanDrive(
	ctx context.Context,
	cls *classify.Classifier,
	runID string,
	scanType domain.ScanType,
	driveID, siteID, ownerEmail string,
	status *driving.ScanStatus,
) error {
	sink := &grantSink{
		store:            o.store,
		cls:              cls,
		runID:            runID,
		siteID:           siteID,
		ownerEmail:       ownerEmail,
		attributeGrantor: scanType == domain.ScanTypeDelta,
	}

	var itemErrors int
	var err error
	if scanType == domain.ScanTypeDelta {
		cursor := ""
		stored, curErr := o.store.GetDeltaCursor(ctx, driveID)
		switch {
		case curErr == nil:
			cursor = stored.Token
		case errors.Is(curErr, domain.ErrNotFound):
			logger.Debug("No delta cursor for drive %s, full enumeration", driveID)
		default:
			return fmt.Errorf("get delta cursor: %w", curErr)
		}

		scanner := &deltaScanner{dir: o.dir, store: o.store, sink: sink}
		err = scanner.scanDrive(ctx, driveID, cursor)
		itemErrors = scanner.itemErrors
	} else {
		walker := &driveWalker{dir: o.dir, sink: sink}
		err = walker.walkDrive(ctx, driveID)
		itemErrors = walker.itemErrors
	}

	o.addProgress(status, sink.grants, itemErrors)

	return err
}

// addProgress updates the shared status counters. Status copies the
// struct concurrently, so every write goes through the same mutex.
func (o *ScanOrchestrator) addProgress(status *driving.ScanStatus, grants, itemErrors int) {
	o.mu.Lock()
	status.GrantsRecorded += grants
	status.ErrorCount += itemErrors
	o.mu.Unlock()
}

func (o *ScanOrchestrator) setActive(status *driving.ScanStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return domain.ErrScanInProgress
	}
	o.active = status
	return nil
}

func (o *ScanOrchestrator) clearActive() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = nil
}
