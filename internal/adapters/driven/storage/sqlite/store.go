package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.GraphStore = (*Store)(nil)

// Store is the SQLite-backed sharing graph.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates an SQLite store in the given data directory.
// If dataDir is empty, defaults to ~/.sharewatch/data/sharewatch.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sharewatch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sharewatch.db")

	// WAL mode so the dashboard can read while a scan writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// CreateRun records a new scan run.
func (s *Store) CreateRun(ctx context.Context, run domain.ScanRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (run_id, started_at, scan_type, status)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), string(run.Type), string(run.Status))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

// CompleteRun marks a run completed.
func (s *Store) CompleteRun(ctx context.Context, runID string) error {
	return s.setRunStatus(ctx, runID, domain.RunStatusCompleted)
}

// FailRun marks a run failed.
func (s *Store) FailRun(ctx context.Context, runID string) error {
	return s.setRunStatus(ctx, runID, domain.RunStatusFailed)
}

func (s *Store) setRunStatus(ctx context.Context, runID string, status domain.RunStatus) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE scan_runs SET status = ? WHERE run_id = ?", string(status), runID)
	if err != nil {
		return fmt.Errorf("updating run status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]domain.ScanRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, scan_type, status
		FROM scan_runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScanRun
	for rows.Next() {
		var run domain.ScanRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Type, &run.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestCompletedRun returns the most recent completed run.
func (s *Store) LatestCompletedRun(ctx context.Context) (*domain.ScanRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, scan_type, status
		FROM scan_runs
		WHERE status = 'completed'
		ORDER BY started_at DESC
		LIMIT 1
	`)
	var run domain.ScanRun
	if err := row.Scan(&run.ID, &run.StartedAt, &run.Type, &run.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoCompletedRun
		}
		return nil, fmt.Errorf("getting latest completed run: %w", err)
	}
	return &run, nil
}

// LatestFullScanTime returns the start of the latest completed full scan.
func (s *Store) LatestFullScanTime(ctx context.Context) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT started_at
		FROM scan_runs
		WHERE status = 'completed' AND scan_type = 'full'
		ORDER BY started_at DESC
		LIMIT 1
	`)
	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("getting latest full scan: %w", err)
	}
	return ts, nil
}

// MergePrincipal upserts a principal keyed by email.
func (s *Store) MergePrincipal(ctx context.Context, p domain.Principal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO principals (email, display_name, origin)
		VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			display_name = excluded.display_name,
			origin = excluded.origin
	`, p.Email, p.DisplayName, p.Origin)
	if err != nil {
		return fmt.Errorf("merging principal: %w", err)
	}
	return nil
}

// MergeSite upserts a site keyed by id.
func (s *Store) MergeSite(ctx context.Context, site domain.Site) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (site_id, name, web_url, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			name = excluded.name,
			web_url = excluded.web_url,
			source = excluded.source
	`, site.ID, site.Name, site.WebURL, site.Source)
	if err != nil {
		return fmt.Errorf("merging site: %w", err)
	}
	return nil
}

// MergeFile upserts a file. Tombstone columns are left untouched so a
// later metadata observation cannot resurrect a deleted file.
func (s *Store) MergeFile(ctx context.Context, f domain.File) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (drive_id, item_id, path, web_url, type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(drive_id, item_id) DO UPDATE SET
			path = excluded.path,
			web_url = excluded.web_url,
			type = excluded.type
	`, f.DriveID, f.ItemID, f.Path, f.WebURL, string(f.Type))
	if err != nil {
		return fmt.Errorf("merging file: %w", err)
	}
	return nil
}

// MergeGrant upserts a grant; a new observation overwrites all
// attributes including the last-seen run.
func (s *Store) MergeGrant(ctx context.Context, g domain.SharingGrant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_with (
			drive_id, item_id, principal_email,
			sharing_type, audience_type, role, risk_level,
			created_date_time, last_seen_run_id, granted_by
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(drive_id, item_id, principal_email) DO UPDATE SET
			sharing_type = excluded.sharing_type,
			audience_type = excluded.audience_type,
			role = excluded.role,
			risk_level = excluded.risk_level,
			created_date_time = excluded.created_date_time,
			last_seen_run_id = excluded.last_seen_run_id,
			granted_by = excluded.granted_by
	`, g.DriveID, g.ItemID, g.PrincipalEmail,
		string(g.SharingType), string(g.AudienceType), g.Role, string(g.RiskLevel),
		g.CreatedDateTime, g.LastSeenRunID, g.GrantedBy)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("merging grant: %w", err)
	}
	return nil
}

// MergeContains links a site to a file it contains.
func (s *Store) MergeContains(ctx context.Context, siteID, driveID, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contains (drive_id, item_id, site_id)
		VALUES (?, ?, ?)
		ON CONFLICT(drive_id, item_id) DO UPDATE SET
			site_id = excluded.site_id
	`, driveID, itemID, siteID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("merging contains: %w", err)
	}
	return nil
}

// MergeOwns links an owning principal to a site.
func (s *Store) MergeOwns(ctx context.Context, ownerEmail, siteID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO owns (principal_email, site_id)
		VALUES (?, ?)
		ON CONFLICT(principal_email, site_id) DO NOTHING
	`, ownerEmail, siteID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("merging owns: %w", err)
	}
	return nil
}

// MarkFileFound links a file to the run that observed it.
func (s *Store) MarkFileFound(ctx context.Context, driveID, itemID, runID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_found (run_id, drive_id, item_id)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, drive_id, item_id) DO NOTHING
	`, runID, driveID, itemID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return domain.ErrNotFound
		}
		return fmt.Errorf("marking file found: %w", err)
	}
	return nil
}

// RemoveFileGrants deletes a file's grants and tombstones the file.
// Unknown files are a no-op: the change feed reports deletions of
// items that were never shared.
func (s *Store) RemoveFileGrants(ctx context.Context, driveID, itemID, runID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM shared_with WHERE drive_id = ? AND item_id = ?", driveID, itemID); err != nil {
		return fmt.Errorf("removing grants: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE files SET deleted_at = ?, deleted_by_run_id = ?
		WHERE drive_id = ? AND item_id = ?
	`, time.Now().UTC(), runID, driveID, itemID)
	if err != nil {
		return fmt.Errorf("tombstoning file: %w", err)
	}
	return nil
}

// PurgeGrants deletes a file's grants without tombstoning.
func (s *Store) PurgeGrants(ctx context.Context, driveID, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM shared_with WHERE drive_id = ? AND item_id = ?", driveID, itemID)
	if err != nil {
		return fmt.Errorf("purging grants: %w", err)
	}
	return nil
}

// SaveDeltaCursor stores or overwrites a drive's change-feed cursor.
func (s *Store) SaveDeltaCursor(ctx context.Context, c domain.DeltaCursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delta_state (drive_id, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(drive_id) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`, c.DriveID, c.Token, c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving delta cursor: %w", err)
	}
	return nil
}

// GetDeltaCursor returns the cursor for a drive.
func (s *Store) GetDeltaCursor(ctx context.Context, driveID string) (*domain.DeltaCursor, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT drive_id, token, updated_at FROM delta_state WHERE drive_id = ?", driveID)
	var c domain.DeltaCursor
	if err := row.Scan(&c.DriveID, &c.Token, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting delta cursor: %w", err)
	}
	return &c, nil
}

// HasDeltaCursors reports whether any cursor is stored.
func (s *Store) HasDeltaCursors(ctx context.Context) (bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM delta_state)")
	var has bool
	if err := row.Scan(&has); err != nil {
		return false, fmt.Errorf("checking delta cursors: %w", err)
	}
	return has, nil
}

const sharingRecordColumns = `
	s.risk_level, site.source, f.path, f.web_url, f.type,
	s.sharing_type, p.email, p.display_name, s.audience_type,
	s.role, s.created_date_time, s.granted_by,
	COALESCE(o.principal_email, ''), COALESCE(op.display_name, ''),
	site.name, f.drive_id, f.item_id`

// SharingRecords returns every grant last confirmed by the run, joined
// with file, principal, site, and optional owner.
func (s *Store) SharingRecords(ctx context.Context, runID string) ([]domain.SharingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sharingRecordColumns+`
		FROM shared_with s
		JOIN files f ON f.drive_id = s.drive_id AND f.item_id = s.item_id
		JOIN principals p ON p.email = s.principal_email
		JOIN contains c ON c.drive_id = f.drive_id AND c.item_id = f.item_id
		JOIN sites site ON site.site_id = c.site_id
		LEFT JOIN owns o ON o.site_id = site.site_id
		LEFT JOIN principals op ON op.email = o.principal_email
		WHERE s.last_seen_run_id = ?
		ORDER BY
			CASE s.risk_level WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 ELSE 2 END,
			o.principal_email, f.path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying sharing records: %w", err)
	}
	defer rows.Close()
	return scanSharingRecords(rows)
}

// OwnerSharingRecords restricts SharingRecords to sites owned by the
// principal.
func (s *Store) OwnerSharingRecords(ctx context.Context, ownerEmail, runID string) ([]domain.SharingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sharingRecordColumns+`
		FROM shared_with s
		JOIN files f ON f.drive_id = s.drive_id AND f.item_id = s.item_id
		JOIN principals p ON p.email = s.principal_email
		JOIN contains c ON c.drive_id = f.drive_id AND c.item_id = f.item_id
		JOIN sites site ON site.site_id = c.site_id
		JOIN owns o ON o.site_id = site.site_id AND o.principal_email = ?
		LEFT JOIN principals op ON op.email = o.principal_email
		WHERE s.last_seen_run_id = ?
		ORDER BY
			CASE s.risk_level WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 ELSE 2 END,
			f.path
	`, ownerEmail, runID)
	if err != nil {
		return nil, fmt.Errorf("querying owner sharing records: %w", err)
	}
	defer rows.Close()
	return scanSharingRecords(rows)
}

func scanSharingRecords(rows *sql.Rows) ([]domain.SharingRecord, error) {
	var records []domain.SharingRecord
	for rows.Next() {
		var r domain.SharingRecord
		err := rows.Scan(
			&r.RiskLevel, &r.Source, &r.ItemPath, &r.ItemWebURL, &r.ItemType,
			&r.SharingType, &r.SharedWith, &r.SharedWithName, &r.AudienceType,
			&r.Role, &r.CreatedDateTime, &r.GrantedBy,
			&r.OwnerEmail, &r.OwnerName,
			&r.SiteName, &r.DriveID, &r.ItemID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning sharing record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
