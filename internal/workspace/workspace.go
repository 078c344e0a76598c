package workspace

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rrbz/excel-insight-creator/internal/ingest"
	"github.com/rrbz/excel-insight-creator/internal/table"
)

// ErrNoDataset is returned when nothing has been loaded yet.
var ErrNoDataset = errors.New("no dataset loaded")

// Snapshot is one successfully ingested table.
type Snapshot struct {
	ID       string
	Name     string
	Table    *table.Table
	LoadedAt time.Time
}

// Info is the JSON view of a snapshot without its rows.
type Info struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Rows     int       `json:"rows"`
	Headers  []string  `json:"headers"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Info describes s.
func (s *Snapshot) Info() Info {
	return Info{
		ID:       s.ID,
		Name:     s.Name,
		Rows:     s.Table.Len(),
		Headers:  s.Table.Headers(),
		LoadedAt: s.LoadedAt,
	}
}

// Workspace holds the current snapshot. A failed load never touches it.
type Workspace struct {
	mu  sync.RWMutex
	cur *Snapshot
	now func() time.Time
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{now: time.Now}
}

// Replace installs t as the current snapshot and returns it.
func (w *Workspace) Replace(t *table.Table) (*Snapshot, error) {
	if t == nil {
		return nil, fmt.Errorf("replace dataset: %w", ErrNoDataset)
	}
	s := &Snapshot{
		ID:       uuid.NewString(),
		Name:     t.Source(),
		Table:    t,
		LoadedAt: w.now().UTC(),
	}
	w.mu.Lock()
	w.cur = s
	w.mu.Unlock()
	return s, nil
}

// Ingest decodes r and, only on success, replaces the current snapshot.
func (w *Workspace) Ingest(r io.Reader, name string, opt ingest.Options) (*Snapshot, error) {
	t, err := ingest.Decode(r, name, opt)
	if err != nil {
		return nil, err
	}
	return w.Replace(t)
}

// Current returns the current snapshot or ErrNoDataset.
func (w *Workspace) Current() (*Snapshot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.cur == nil {
		return nil, ErrNoDataset
	}
	return w.cur, nil
}
