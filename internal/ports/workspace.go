package ports

// Workspace holds the intermediates of one conversion next to its
// destination and publishes the result only when every stage succeeded
type Workspace interface {
	// Dir is the scratch directory
	Dir() string

	// Path returns a file path inside the scratch directory
	Path(name string) string

	// Commit moves a scratch file over dst
	Commit(name, dst string) error

	// Close removes the scratch directory
	Close() error
}

// WorkspaceFactory creates the workspace of one run for a destination path
type WorkspaceFactory func(dst, runID string) (Workspace, error)

// MediaTracker snapshots a media directory and removes newly created files
// that the final markdown does not reference
type MediaTracker interface {
	Snapshot(mediaDir string) (map[string]bool, error)
	Prune(mediaDir string, before map[string]bool, markdown string) (int, error)
}
