package dotdir

import "path/filepath"

const (
	contentDir   = "content"
	inboxDir     = "inbox"
	databaseFile = "chatvault.db"
)

// Layout names the default data locations inside a resolved .chatvault/ dir.
type Layout struct {
	Root string
}

// Layout resolves the target directory and returns its data layout.
func (m *Manager) Layout(overrideDir string) (Layout, error) {
	root, err := m.Target(overrideDir)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Root: root}, nil
}

// ContentDir is where the filesystem content store keeps archived turns.
func (l Layout) ContentDir() string {
	return filepath.Join(l.Root, contentDir)
}

// DatabasePath is the SQLite database shared by records and vectors.
func (l Layout) DatabasePath() string {
	return filepath.Join(l.Root, databaseFile)
}

// InboxDir is the default directory watched for new exports.
func (l Layout) InboxDir() string {
	return filepath.Join(l.Root, inboxDir)
}
