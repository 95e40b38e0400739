package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/adshift/adshift/internal/domain"
)

const (
	historyFile = ".adshift/history/migrations.json"
	maxEntries  = 500
)

// FileStore implements domain.ReportStore using a JSON file under the
// project directory. Only the newest maxEntries reports are kept.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func New(root string) *FileStore {
	return &FileStore{root: root}
}

// Path returns the location of the history file.
func (h *FileStore) Path() string { return filepath.Join(h.root, historyFile) }

func (h *FileStore) Save(_ context.Context, report *domain.MigrationReport) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load()
	if err != nil {
		return err
	}

	entries = append(entries, report)
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	fp := h.Path()
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := fp + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, fp)
}

func (h *FileStore) List(_ context.Context, limit int) ([]*domain.MigrationReport, error) {
	h.mu.Lock()
	entries, err := h.load()
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.MigrationReport, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (h *FileStore) load() ([]*domain.MigrationReport, error) {
	data, err := os.ReadFile(h.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []*domain.MigrationReport
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
