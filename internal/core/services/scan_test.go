package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

// --- Mock implementations for scan testing ---

// scanMockDirectory implements driven.DirectoryService with scripted
// responses keyed by "driveID:itemID".
type scanMockDirectory struct {
	tenantDomain string
	accounts     []domain.Account
	accountsErr  error
	drives       map[string]*domain.Drive
	sites        []domain.SiteInfo
	sitesErr     error
	siteDrives   map[string][]domain.Drive
	children     map[string][]domain.DriveItem
	childrenErr  map[string]error
	perms        map[string][]domain.Permission
	permsErr     map[string]error
	changes      map[string][]domain.DriveItem
	changesErr   map[string]error
	newCursor    string

	changeCursors []string
}

var _ driven.DirectoryService = (*scanMockDirectory)(nil)

func newScanMockDirectory() *scanMockDirectory {
	return &scanMockDirectory{
		tenantDomain: "contoso.com",
		drives:       make(map[string]*domain.Drive),
		siteDrives:   make(map[string][]domain.Drive),
		children:     make(map[string][]domain.DriveItem),
		childrenErr:  make(map[string]error),
		perms:        make(map[string][]domain.Permission),
		permsErr:     make(map[string]error),
		changes:      make(map[string][]domain.DriveItem),
		changesErr:   make(map[string]error),
		newCursor:    "cursor-next",
	}
}

func (m *scanMockDirectory) TenantDomain(_ context.Context) (string, error) {
	return m.tenantDomain, nil
}

func (m *scanMockDirectory) ListAccounts(_ context.Context) ([]domain.Account, error) {
	return m.accounts, m.accountsErr
}

func (m *scanMockDirectory) GetAccountDrive(_ context.Context, accountID string) (*domain.Drive, error) {
	drive, ok := m.drives[accountID]
	if !ok {
		return nil, domain.ErrDriveUnavailable
	}
	return drive, nil
}

func (m *scanMockDirectory) ListSites(_ context.Context) ([]domain.SiteInfo, error) {
	return m.sites, m.sitesErr
}

func (m *scanMockDirectory) ListSiteDrives(_ context.Context, siteID string) ([]domain.Drive, error) {
	return m.siteDrives[siteID], nil
}

func (m *scanMockDirectory) ListChildren(_ context.Context, driveID, itemID string) ([]domain.DriveItem, error) {
	key := driveID + ":" + itemID
	if err := m.childrenErr[key]; err != nil {
		return nil, err
	}
	return m.children[key], nil
}

func (m *scanMockDirectory) ListPermissions(_ context.Context, driveID, itemID string) ([]domain.Permission, error) {
	key := driveID + ":" + itemID
	if err := m.permsErr[key]; err != nil {
		return nil, err
	}
	return m.perms[key], nil
}

func (m *scanMockDirectory) Changes(_ context.Context, driveID, cursor string) ([]domain.DriveItem, string, error) {
	m.changeCursors = append(m.changeCursors, cursor)
	if err := m.changesErr[driveID]; err != nil {
		return nil, "", err
	}
	return m.changes[driveID], m.newCursor, nil
}

func anonymousLinkPermission() domain.Permission {
	return domain.Permission{
		ID:    "perm-anon",
		Roles: []string{"read"},
		Link:  &domain.SharingLink{Scope: "anonymous", Type: "view"},
	}
}

func ownerPermission(email string) domain.Permission {
	return domain.Permission{
		ID:    "perm-owner",
		Roles: []string{"owner"},
		GrantedToV2: &domain.IdentitySet{
			User: &domain.Identity{Email: email, DisplayName: "Owner"},
		},
	}
}

// newTestOrchestrator wires a mock directory and a memory store with a
// single OneDrive account whose drive holds one shared file.
func newTestOrchestrator(t *testing.T) (*ScanOrchestrator, *scanMockDirectory, *memory.GraphStore) {
	t.Helper()
	dir := newScanMockDirectory()
	dir.accounts = []domain.Account{
		{ID: "u1", DisplayName: "Anna Graf", UserPrincipalName: "anna@contoso.com", AccountEnabled: true},
	}
	dir.drives["u1"] = &domain.Drive{ID: "d1", WebURL: "https://contoso-my.sharepoint.com/personal/anna"}
	dir.children["d1:root"] = []domain.DriveItem{
		{ID: "f1", Name: "budget.xlsx", WebURL: "https://contoso.com/f1"},
	}
	dir.perms["d1:f1"] = []domain.Permission{
		ownerPermission("anna@contoso.com"),
		anonymousLinkPermission(),
	}
	store := memory.NewGraphStore()
	return NewScanOrchestrator(dir, store, classify.DefaultMatcher(), 7*24*time.Hour), dir, store
}

func TestScanFullRecordsGrants(t *testing.T) {
	orch, _, store := newTestOrchestrator(t)

	result, err := orch.Scan(context.Background(), driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)
	assert.Equal(t, domain.ScanTypeFull, result.ScanType)
	assert.Equal(t, 1, result.GrantsRecorded, "owner self-grant must be skipped")
	assert.Equal(t, 0, result.ErrorCount)

	run, err := store.LatestCompletedRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)

	records, err := store.SharingRecords(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "anonymous", records[0].SharedWith)
	assert.Equal(t, domain.SharingLinkAnyone, records[0].SharingType)
	assert.Equal(t, domain.RiskHigh, records[0].RiskLevel)
	assert.Equal(t, "/budget.xlsx", records[0].ItemPath)
	assert.Equal(t, domain.SourceOneDrive, records[0].Source)
	assert.Equal(t, "anna@contoso.com", records[0].OwnerEmail)
	assert.Empty(t, records[0].GrantedBy, "full scans do not attribute grantors")
}

func TestScanWalksNestedFolders(t *testing.T) {
	orch, dir, _ := newTestOrchestrator(t)
	dir.children["d1:root"] = []domain.DriveItem{
		{ID: "folder1", Name: "Projects", Folder: &domain.FolderFacet{ChildCount: 1}},
	}
	dir.children["d1:folder1"] = []domain.DriveItem{
		{ID: "f2", Name: "plan.docx", WebURL: "https://contoso.com/f2"},
	}
	dir.perms["d1:f2"] = []domain.Permission{anonymousLinkPermission()}

	result, err := orch.Scan(context.Background(), driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GrantsRecorded)

	records, err := orchStoreRecords(orch, result.RunID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/Projects/plan.docx", records[0].ItemPath)
}

func orchStoreRecords(orch *ScanOrchestrator, runID string) ([]domain.SharingRecord, error) {
	return orch.store.SharingRecords(context.Background(), runID)
}

func TestScanAbsorbsItemErrors(t *testing.T) {
	orch, dir, _ := newTestOrchestrator(t)
	dir.children["d1:root"] = append(dir.children["d1:root"],
		domain.DriveItem{ID: "f9", Name: "locked.pdf"})
	dir.permsErr["d1:f9"] = errors.New("403 forbidden")

	result, err := orch.Scan(context.Background(), driving.ScanOptions{SkipSites: true})
	require.NoError(t, err, "per-item errors must not fail the run")
	assert.Equal(t, 1, result.GrantsRecorded)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestScanSkipsAccountsWithoutDrive(t *testing.T) {
	orch, dir, _ := newTestOrchestrator(t)
	dir.accounts = append(dir.accounts, domain.Account{
		ID: "u2", DisplayName: "No Drive", UserPrincipalName: "nodrive@contoso.com",
	})

	result, err := orch.Scan(context.Background(), driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GrantsRecorded)
	assert.Equal(t, 0, result.ErrorCount, "a missing drive is not an error")
}

func TestScanAccountFilter(t *testing.T) {
	orch, dir, _ := newTestOrchestrator(t)
	dir.accounts = append(dir.accounts, domain.Account{
		ID: "u3", DisplayName: "Bo Berg", UserPrincipalName: "bo@contoso.com",
	})
	dir.drives["u3"] = &domain.Drive{ID: "d3"}
	dir.children["d3:root"] = []domain.DriveItem{{ID: "f3", Name: "x.txt"}}
	dir.perms["d3:f3"] = []domain.Permission{anonymousLinkPermission()}

	result, err := orch.Scan(context.Background(), driving.ScanOptions{
		SkipSites: true,
		Accounts:  []string{"bo@contoso.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GrantsRecorded, "only the filtered account is walked")
}

func TestScanSharePointSiteFiltering(t *testing.T) {
	orch, dir, _ := newTestOrchestrator(t)
	dir.accounts = nil
	dir.sites = []domain.SiteInfo{
		{ID: "s1", DisplayName: "Finance", WebURL: "https://contoso.sharepoint.com/sites/finance"},
		{ID: "s2", DisplayName: "Personal", WebURL: "https://contoso-my.sharepoint.com/personal/anna"},
		{ID: "s3", DisplayName: "", WebURL: "https://contoso.sharepoint.com/sites/system"},
	}
	dir.siteDrives["s1"] = []domain.Drive{{
		ID: "sd1",
		Owner: &domain.IdentitySet{
			User: &domain.Identity{Email: "cfo@contoso.com", DisplayName: "CFO"},
		},
	}}
	dir.children["sd1:root"] = []domain.DriveItem{{ID: "sf1", Name: "salaries.xlsx"}}
	dir.perms["sd1:sf1"] = []domain.Permission{anonymousLinkPermission()}

	result, err := orch.Scan(context.Background(), driving.ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GrantsRecorded)

	records, err := orchStoreRecords(orch, result.RunID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.SourceSharePoint, records[0].Source)
	assert.Equal(t, "Finance", records[0].SiteName)
	assert.Equal(t, "cfo@contoso.com", records[0].OwnerEmail)
}

func TestScanFatalErrorFailsRun(t *testing.T) {
	orch, dir, store := newTestOrchestrator(t)
	dir.accountsErr = errors.New("directory unreachable")

	_, err := orch.Scan(context.Background(), driving.ScanOptions{})
	require.Error(t, err)

	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
}

func TestScanModeSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("no cursors forces full", func(t *testing.T) {
		orch, _, _ := newTestOrchestrator(t)
		mode, err := orch.selectMode(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, domain.ScanTypeFull, mode)
	})

	t.Run("force full overrides cursors", func(t *testing.T) {
		orch, _, store := newTestOrchestrator(t)
		require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c"}))
		mode, err := orch.selectMode(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, domain.ScanTypeFull, mode)
	})

	t.Run("cursors without a completed full scan force full", func(t *testing.T) {
		orch, _, store := newTestOrchestrator(t)
		require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c"}))
		mode, err := orch.selectMode(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, domain.ScanTypeFull, mode)
	})

	t.Run("recent full scan allows delta", func(t *testing.T) {
		orch, _, store := newTestOrchestrator(t)
		require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c"}))
		require.NoError(t, store.CreateRun(ctx, domain.ScanRun{
			ID: "r1", StartedAt: time.Now().Add(-time.Hour), Type: domain.ScanTypeFull,
		}))
		require.NoError(t, store.CompleteRun(ctx, "r1"))
		mode, err := orch.selectMode(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, domain.ScanTypeDelta, mode)
	})

	t.Run("stale full scan forces full", func(t *testing.T) {
		orch, _, store := newTestOrchestrator(t)
		require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c"}))
		require.NoError(t, store.CreateRun(ctx, domain.ScanRun{
			ID: "r1", StartedAt: time.Now().Add(-30 * 24 * time.Hour), Type: domain.ScanTypeFull,
		}))
		require.NoError(t, store.CompleteRun(ctx, "r1"))
		mode, err := orch.selectMode(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, domain.ScanTypeFull, mode)
	})
}

func TestScanDeltaDeletedItem(t *testing.T) {
	orch, dir, store := newTestOrchestrator(t)
	ctx := context.Background()

	// Seed a previous full scan so the file exists, then go delta.
	result, err := orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)
	require.Equal(t, 1, result.GrantsRecorded)

	dir.changes["d1"] = []domain.DriveItem{
		{ID: "f1", Name: "budget.xlsx", Deleted: &domain.DeletedFacet{State: "deleted"}},
	}
	require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c0"}))

	deltaResult, err := orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)
	assert.Equal(t, domain.ScanTypeDelta, deltaResult.ScanType)
	assert.Equal(t, 0, deltaResult.GrantsRecorded)

	// The grant is gone from the previous run's view as well.
	records, err := store.SharingRecords(ctx, result.RunID)
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.Equal(t, "c0", dir.changeCursors[len(dir.changeCursors)-1])
	cursor, err := store.GetDeltaCursor(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "cursor-next", cursor.Token)
}

func TestScanDeltaContentOnlyChange(t *testing.T) {
	orch, dir, store := newTestOrchestrator(t)
	ctx := context.Background()

	result, err := orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)

	dir.changes["d1"] = []domain.DriveItem{{
		ID:              "f1",
		Name:            "renamed.xlsx",
		WebURL:          "https://contoso.com/f1",
		ParentReference: &domain.ItemReference{Path: "/drive/root:"},
	}}
	require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c0"}))

	_, err = orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)

	// Metadata updated, grant untouched.
	records, err := store.SharingRecords(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/renamed.xlsx", records[0].ItemPath)
	assert.Equal(t, "anonymous", records[0].SharedWith)
}

func TestScanDeltaSharingChange(t *testing.T) {
	orch, dir, store := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)

	dir.changes["d1"] = []domain.DriveItem{{
		ID:              "f1",
		Name:            "budget.xlsx",
		WebURL:          "https://contoso.com/f1",
		ParentReference: &domain.ItemReference{Path: "/drive/root:/Shared"},
		SharedChanged:   true,
	}}
	dir.perms["d1:f1"] = []domain.Permission{{
		ID:    "perm-user",
		Roles: []string{"write"},
		GrantedToV2: &domain.IdentitySet{
			User: &domain.Identity{Email: "ex@partner.dk", DisplayName: "Ex Partner"},
		},
	}}
	require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c0"}))

	deltaResult, err := orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)
	assert.Equal(t, 1, deltaResult.GrantsRecorded)

	records, err := store.SharingRecords(ctx, deltaResult.RunID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ex@partner.dk", records[0].SharedWith)
	assert.Equal(t, domain.AudienceExternal, records[0].AudienceType)
	assert.Equal(t, "/Shared/budget.xlsx", records[0].ItemPath)
	assert.Equal(t, "anna@contoso.com", records[0].GrantedBy,
		"delta attribution falls back to the drive owner")
}

func TestScanDeltaFeedFailureIsFatal(t *testing.T) {
	orch, dir, store := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.NoError(t, err)

	require.NoError(t, store.SaveDeltaCursor(ctx, domain.DeltaCursor{DriveID: "d1", Token: "c0"}))
	dir.changesErr["d1"] = errors.New("delta feed unavailable")

	_, err = orch.Scan(ctx, driving.ScanOptions{SkipSites: true})
	require.Error(t, err)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)

	cursor, err := store.GetDeltaCursor(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "c0", cursor.Token, "cursor must not advance past unprocessed changes")
}

func TestScanStatusConcurrentPolling(t *testing.T) {
	orch, dir, _ := newTestOrchestrator(t)
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("poll-u%d", i)
		driveID := "drive-" + id
		dir.accounts = append(dir.accounts, domain.Account{
			ID:                id,
			DisplayName:       id,
			UserPrincipalName: id + "@contoso.com",
			AccountEnabled:    true,
		})
		dir.drives[id] = &domain.Drive{ID: driveID, WebURL: "https://contoso-my.sharepoint.com/personal/" + id}
		dir.children[driveID+":root"] = []domain.DriveItem{
			{ID: "f1", Name: "doc.docx", WebURL: "https://contoso.com/" + id},
		}
		dir.perms[driveID+":f1"] = []domain.Permission{anonymousLinkPermission()}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				status, err := orch.Status(context.Background())
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, status.GrantsRecorded, 0)
			}
		}()
	}

	result, err := orch.Scan(context.Background(), driving.ScanOptions{SkipSites: true})
	close(done)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 51, result.GrantsRecorded)
}

func TestScanStatusIdle(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t)
	status, err := orch.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestDeltaItemPath(t *testing.T) {
	tests := []struct {
		name string
		item domain.DriveItem
		want string
	}{
		{
			name: "nested parent path",
			item: domain.DriveItem{
				Name:            "q3.xlsx",
				ParentReference: &domain.ItemReference{Path: "/drive/root:/Projects/Budget"},
			},
			want: "/Projects/Budget/q3.xlsx",
		},
		{
			name: "root parent",
			item: domain.DriveItem{
				Name:            "readme.md",
				ParentReference: &domain.ItemReference{Path: "/drive/root:"},
			},
			want: "/readme.md",
		},
		{
			name: "no parent reference",
			item: domain.DriveItem{Name: "orphan.txt"},
			want: "/orphan.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deltaItemPath(&tt.item))
		})
	}
}
