package tickets

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
)

const (
	DefaultStateDir = "/var/lib/focusctl"
	DefaultPath     = DefaultStateDir + "/procs.txt"
)

// Store is the only code that touches the ticket file. Readers take no lock:
// a concurrent writer may be mid-rewrite, and Parse drops whatever is torn.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path}
}

// Load returns an empty table when the file does not exist yet.
func (s *Store) Load() (Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, nil
		}
		return nil, fmt.Errorf("open ticket table %s: %w", s.Path, err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read ticket table %s: %w", s.Path, err)
	}
	return table, nil
}

// Save replaces the whole file. The new content is written to a temp file in
// the same directory and renamed over the old one.
func (s *Store) Save(table Table) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Errorf("create state dir %s failed %v", dir, err)
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp ticket table: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := table.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write ticket table: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ticket table: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		log.Errorf("replace %s failed %v", s.Path, err)
		return fmt.Errorf("replace ticket table %s: %w", s.Path, err)
	}
	return nil
}

// Add inserts pid or updates its tickets. It reports whether pid was already present.
func (s *Store) Add(pid, tickets int) (bool, error) {
	table, err := s.Load()
	if err != nil {
		return false, err
	}
	updated, err := table.Upsert(pid, tickets)
	if err != nil {
		return false, err
	}
	return updated, s.Save(table)
}

// Remove deletes pid if present.
func (s *Store) Remove(pid int) (bool, error) {
	table, err := s.Load()
	if err != nil {
		return false, err
	}
	found := table.Remove(pid)
	return found, s.Save(table)
}

// RemoveIf drops every entry for which drop returns true and returns the dropped entries.
func (s *Store) RemoveIf(drop func(Entry) bool) ([]Entry, error) {
	table, err := s.Load()
	if err != nil {
		return nil, err
	}
	var kept Table
	var dropped []Entry
	for _, e := range table {
		if drop(e) {
			dropped = append(dropped, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(dropped) == 0 {
		return nil, nil
	}
	return dropped, s.Save(kept)
}
