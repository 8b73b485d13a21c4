// Package storage implements the named-slot persistence layer. Each slot is
// one JSON file under the data directory, written atomically and read with a
// never-block-on-corruption policy: an unreadable slot is quarantined and the
// caller starts empty.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Slot names used by the application. Each holds an independent structure;
// there is no cross-slot transaction.
const (
	SlotPatients      = "patients"
	SlotPrescriptions = "prescriptions"
	SlotDraft         = "draft"
	SlotDoctorInfo    = "doctor_info"
)

type Store struct {
	fs  afero.Fs
	dir string
	log zerolog.Logger
	mu  sync.Mutex
}

func New(fs afero.Fs, dir string, log zerolog.Logger) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir, log: log}, nil
}

func (s *Store) path(slot string) string {
	return filepath.Join(s.dir, slot+".json")
}

// Load reads a slot into v. It returns false when the slot is absent or its
// content cannot be parsed; a corrupt blob is renamed to <slot>.json.corrupt
// so it can be recovered by hand, and a warning is logged. The error return
// is reserved for I/O failures on an otherwise readable filesystem.
func (s *Store) Load(slot string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read slot %s: %w", slot, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.quarantine(slot, err)
		return false, nil
	}
	return true, nil
}

// Save writes a slot atomically: marshal, write to a temp file, rename over
// the slot. A reader never observes a partial write.
func (s *Store) Save(slot string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", slot, err)
	}
	tmp := s.path(slot) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	if err := s.fs.Rename(tmp, s.path(slot)); err != nil {
		return fmt.Errorf("commit slot %s: %w", slot, err)
	}
	return nil
}

// Clear removes a slot. Removing an absent slot is a no-op.
func (s *Store) Clear(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path(slot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear slot %s: %w", slot, err)
	}
	return nil
}

// Exists reports whether a slot file is present, without parsing it.
func (s *Store) Exists(slot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := afero.Exists(s.fs, s.path(slot))
	return err == nil && ok
}

// quarantine moves an unparseable slot aside instead of discarding it.
func (s *Store) quarantine(slot string, cause error) {
	corrupt := s.path(slot) + ".corrupt"
	if err := s.fs.Rename(s.path(slot), corrupt); err != nil {
		s.log.Warn().Err(err).Str("slot", slot).Msg("failed to quarantine corrupt slot")
		return
	}
	s.log.Warn().
		Err(cause).
		Str("slot", slot).
		Str("preserved_as", corrupt).
		Msg("slot content unparseable, starting empty")
}
