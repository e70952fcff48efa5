package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"dmt/internal/domain/milestone"
)

// MediaTracker implements ports.MediaTracker
type MediaTracker struct{}

// NewMediaTracker creates a media tracker
func NewMediaTracker() *MediaTracker {
	return &MediaTracker{}
}

// Snapshot implements ports.MediaTracker
func (m *MediaTracker) Snapshot(mediaDir string) (map[string]bool, error) {
	return SnapshotMedia(mediaDir)
}

// Prune implements ports.MediaTracker
func (m *MediaTracker) Prune(mediaDir string, before map[string]bool, markdown string) (int, error) {
	return PruneMedia(mediaDir, before, markdown)
}

// SnapshotMedia lists the files under mediaDir, relative and slash
// separated. A missing directory yields an empty set
func SnapshotMedia(mediaDir string) (map[string]bool, error) {
	files := make(map[string]bool)
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == mediaDir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(mediaDir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return files, nil
}

// PruneMedia deletes files created since the snapshot that markdown does
// not reference, then removes directories left empty. Files present before
// the run are never touched
func PruneMedia(mediaDir string, before map[string]bool, markdown string) (int, error) {
	if _, err := os.Stat(mediaDir); os.IsNotExist(err) {
		return 0, nil
	}
	after, err := SnapshotMedia(mediaDir)
	if err != nil {
		return 0, err
	}
	refs := milestone.MediaRefs(markdown)

	removed := 0
	for rel := range after {
		if before[rel] || refs[rel] {
			continue
		}
		if err := os.Remove(filepath.Join(mediaDir, filepath.FromSlash(rel))); err != nil {
			return removed, fmt.Errorf("failed to remove unreferenced media %s: %w", rel, err)
		}
		removed++
	}
	removeEmptyDirs(mediaDir)
	return removed, nil
}

// removeEmptyDirs removes empty directories below and including root,
// deepest first. Non-empty directories are left alone
func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		_ = os.Remove(dir)
	}
}
