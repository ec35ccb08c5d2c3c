package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
	"github.com/custodia-labs/sharewatch-cli/internal/metrics"
)

// driveWalker walks one drive's full item tree depth-first, fetching
// permissions for every item. Provider failures on a single item or
// folder are logged and counted, never fatal, so one unreadable
// subtree cannot abort a tenant-wide scan.
type driveWalker struct {
	dir  driven.DirectoryService
	sink *grantSink

	itemErrors int
}

type walkFrame struct {
	itemID string
	path   string
}

// walkDrive visits every item under the drive root. Returns a non-nil
// error only on store failure or context cancellation.
func (w *driveWalker) walkDrive(ctx context.Context, driveID string) error {
	stack := []walkFrame{{itemID: "root", path: ""}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return err
		}

		children, err := w.dir.ListChildren(ctx, driveID, frame.itemID)
		if err != nil {
			logger.Warn("Could not list children of %s: %v", frame.path, err)
			w.itemErrors++
			metrics.ItemErrors.Inc()
			continue
		}

		for i := range children {
			item := &children[i]
			itemPath := frame.path + "/" + item.Name
			metrics.ItemsProcessed.Inc()

			perms, err := w.dir.ListPermissions(ctx, driveID, item.ID)
			if err != nil {
				logger.Warn("Could not get permissions for %s: %v", itemPath, err)
				w.itemErrors++
				metrics.ItemErrors.Inc()
				perms = nil
			}

			if err := w.sink.recordItem(ctx, driveID, item, itemPath, perms); err != nil {
				return err
			}

			if item.IsFolder() && item.Folder.ChildCount > 0 {
				stack = append(stack, walkFrame{itemID: item.ID, path: itemPath})
			}
		}
	}
	return nil
}

// deltaScanner applies one drive's change feed. Deleted items purge
// their grants without a permission fetch; content-only changes update
// file metadata; sharing changes re-fetch and re-merge permissions.
// The new cursor is saved even when individual items failed.
type deltaScanner struct {
	dir   driven.DirectoryService
	store driven.GraphStore
	sink  *grantSink

	itemErrors int
}

// scanDrive processes the change feed since the cursor. A failure to
// read the feed itself is fatal for the run: without a fresh cursor the
// drive's change history would be silently lost.
func (d *deltaScanner) scanDrive(ctx context.Context, driveID, cursor string) error {
	items, newCursor, err := d.dir.Changes(ctx, driveID, cursor)
	if err != nil {
		return err
	}
	logger.Info("  Delta returned %d changed items", len(items))

	for i := range items {
		item := &items[i]
		metrics.ItemsProcessed.Inc()

		if item.Deleted != nil {
			if err := d.store.RemoveFileGrants(ctx, driveID, item.ID, d.sink.runID); err != nil {
				return err
			}
			continue
		}

		itemPath := deltaItemPath(item)

		if !item.SharedChanged {
			file := domain.File{
				DriveID: driveID,
				ItemID:  item.ID,
				Path:    itemPath,
				WebURL:  item.WebURL,
				Type:    item.Type(),
			}
			if err := d.store.MergeFile(ctx, file); err != nil {
				return err
			}
			continue
		}

		perms, err := d.dir.ListPermissions(ctx, driveID, item.ID)
		if err != nil {
			logger.Warn("Could not get permissions for %s: %v", itemPath, err)
			d.itemErrors++
			metrics.ItemErrors.Inc()
			perms = nil
		}
		if err := d.sink.recordItem(ctx, driveID, item, itemPath, perms); err != nil {
			return err
		}
	}

	return d.store.SaveDeltaCursor(ctx, domain.DeltaCursor{
		DriveID:   driveID,
		Token:     newCursor,
		UpdatedAt: time.Now().UTC(),
	})
}

// deltaItemPath rebuilds the display path of a change-feed item. Feed
// items carry a provider-relative parent path like "/drive/root:/A/B";
// everything before the ":/" marker is provider plumbing.
func deltaItemPath(item *domain.DriveItem) string {
	parent := ""
	if item.ParentReference != nil {
		parent = item.ParentReference.Path
	}
	if idx := strings.Index(parent, ":/"); idx >= 0 {
		parent = parent[idx+2:]
	} else {
		parent = ""
	}
	if parent != "" {
		return "/" + parent + "/" + item.Name
	}
	return "/" + item.Name
}
