package syncengine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joe/media-sync/internal/watermark"
	"github.com/joe/media-sync/pkg/filesystem"
)

// WorkItem is one file the planner decided to copy.
type WorkItem struct {
	RelativePath string // folder + "/" + name, forward slashes
	Size         int64
	ModTime      time.Time
}

// Folder returns the folder identifier the item's watermark belongs to.
func (w WorkItem) Folder() string {
	return filesystem.FileInfo{RelativePath: w.RelativePath}.Folder()
}

func (w WorkItem) String() string {
	return fmt.Sprintf("%s (%s bytes)", w.RelativePath, humanize.Comma(w.Size))
}

// Plan is the ordered copy queue.
type Plan struct {
	Items      []WorkItem
	TotalBytes int64
}

// Len returns the number of queued items.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}

	return len(p.Items)
}

// StatusLine summarises the plan for display.
func StatusLine(p *Plan) string {
	count := p.Len()
	if count == 0 {
		return "Destination is up-to-date."
	}

	files := "files"
	if count == 1 {
		files = "file"
	}

	bytes := "bytes"
	if p.TotalBytes == 1 {
		bytes = "byte"
	}

	return fmt.Sprintf("%s %s in %d %s to be copied.", humanize.Comma(p.TotalBytes), bytes, count, files)
}

// Planner computes the copy queue from the source tree, the destination
// tree and the watermark table.
type Planner struct {
	SourceFS filesystem.FileSystem
	DestFS   filesystem.FileSystem
	Filter   FileFilter
	// Discover adds every source directory that directly holds media files
	// to the folders named by the watermark table.
	Discover bool
}

// NewPlanner creates a planner with the media filter.
func NewPlanner(sourceFS, destFS filesystem.FileSystem) *Planner {
	return &Planner{
		SourceFS: sourceFS,
		DestFS:   destFS,
		Filter:   NewMediaFilter(),
	}
}

// Plan lists every media file that is newer than its folder's watermark and
// not yet present in the destination. The result is sorted by relative
// path. On error no plan is returned.
func (p *Planner) Plan(ctx context.Context, sourceRoot, destRoot string, marks watermark.Watermarks) (*Plan, error) {
	err := checkRoot(p.SourceFS, sourceRoot, "source", ErrSourceNotFound)
	if err != nil {
		return nil, err
	}

	err = checkRoot(p.DestFS, destRoot, "destination", ErrDestinationNotFound)
	if err != nil {
		return nil, err
	}

	folders, err := p.folders(ctx, sourceRoot, marks)
	if err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0)

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return nil, &PlanError{Op: "list", Err: err}
		}

		found, err := p.planFolder(sourceRoot, destRoot, folder, marks.Get(folder))
		if err != nil {
			return nil, err
		}

		items = append(items, found...)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].RelativePath < items[j].RelativePath
	})

	plan := &Plan{Items: make([]WorkItem, 0, len(items))}

	for i, item := range items {
		if i > 0 && items[i-1].RelativePath == item.RelativePath {
			continue
		}

		plan.Items = append(plan.Items, item)
		plan.TotalBytes += item.Size
	}

	return plan, nil
}

// discover returns the folders under root that directly contain at least
// one media file. Files directly in root have no folder and are ignored.
func (p *Planner) discover(ctx context.Context, root string) ([]string, error) {
	scanner := p.SourceFS.Scan(root)
	seen := make(map[string]bool)
	folders := make([]string, 0)

	for info, ok := scanner.Next(); ok; info, ok = scanner.Next() {
		if err := ctx.Err(); err != nil {
			return nil, &PlanError{Op: "discover", Path: root, Err: err}
		}

		if info.IsDir {
			continue
		}

		folder := info.Folder()
		if folder == "" || seen[folder] || !p.Filter.ShouldInclude(info.Name()) {
			continue
		}

		seen[folder] = true
		folders = append(folders, folder)
	}

	if err := scanner.Err(); err != nil {
		return nil, &PlanError{Op: "discover", Path: root, Err: err}
	}

	return folders, nil
}

// folders returns the sorted, de-duplicated folder identifiers to list.
func (p *Planner) folders(ctx context.Context, sourceRoot string, marks watermark.Watermarks) ([]string, error) {
	folders := marks.Folders()

	if !p.Discover {
		return folders, nil
	}

	discovered, err := p.discover(ctx, sourceRoot)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(folders))
	for _, folder := range folders {
		known[folder] = true
	}

	for _, folder := range discovered {
		if !known[folder] {
			known[folder] = true
			folders = append(folders, folder)
		}
	}

	sort.Strings(folders)

	return folders, nil
}

// planFolder lists the files directly under one source folder.
// A folder missing from the source is not an error.
func (p *Planner) planFolder(sourceRoot, destRoot, folder string, mark time.Time) ([]WorkItem, error) {
	srcDir := filepath.Join(sourceRoot, filepath.FromSlash(folder))

	entries, err := p.SourceFS.ReadDir(srcDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, &PlanError{Op: "list", Path: srcDir, Err: err}
	}

	items := make([]WorkItem, 0)

	for _, entry := range entries {
		if entry.IsDir || !p.Filter.ShouldInclude(entry.RelativePath) {
			continue
		}

		if !entry.ModTime.After(mark) {
			continue
		}

		relPath := folder + "/" + entry.RelativePath
		dstPath := filepath.Join(destRoot, filepath.FromSlash(relPath))

		exists, err := filesystem.Exists(p.DestFS, dstPath)
		if err != nil {
			return nil, &PlanError{Op: "check", Path: dstPath, Err: err}
		}

		if exists {
			continue
		}

		if err := watermark.CheckRepresentable(entry.ModTime); err != nil {
			return nil, &PlanError{Op: "timestamp", Path: filepath.Join(srcDir, entry.RelativePath), Err: err}
		}

		items = append(items, WorkItem{
			RelativePath: relPath,
			Size:         entry.Size,
			ModTime:      entry.ModTime,
		})
	}

	return items, nil
}

func checkRoot(fs filesystem.FileSystem, root, op string, missing error) error {
	info, err := fs.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PlanError{Op: op, Path: root, Err: missing}
		}

		return &PlanError{Op: op, Path: root, Err: err}
	}

	if !info.IsDir() {
		return &PlanError{Op: op, Path: root, Err: fmt.Errorf("%w: %w", missing, ErrNotDirectory)}
	}

	return nil
}
