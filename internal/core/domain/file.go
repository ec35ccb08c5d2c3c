package domain

import "time"

// ItemType distinguishes files from folders.
type ItemType string

const (
	// ItemTypeFile is a regular file.
	ItemTypeFile ItemType = "File"
	// ItemTypeFolder is a folder. A grant on a folder exposes all
	// current and future contents, which the risk score reflects.
	ItemTypeFolder ItemType = "Folder"
)

// File is a drive item observed during a scan. The composite
// (DriveID, ItemID) key is stable across renames and moves; Path is
// rebuilt from the parent chain on every observation and must never
// be used as a key.
type File struct {
	// DriveID identifies the containing drive.
	DriveID string

	// ItemID is the provider item identifier within the drive.
	ItemID string

	// Path is the human-readable path, e.g. "/Projects/Budget/q3.xlsx".
	Path string

	// WebURL is the browsable location.
	WebURL string

	// Type is File or Folder.
	Type ItemType

	// DeletedAt is set when a delta scan observes the item deleted.
	// Files are tombstoned, never removed, to preserve audit history.
	DeletedAt *time.Time

	// DeletedByRunID is the run that observed the deletion.
	DeletedByRunID string
}

// Key returns the composite identifier used throughout the system,
// including by the dashboard's remediation requests.
func (f *File) Key() string {
	return f.DriveID + ":" + f.ItemID
}
