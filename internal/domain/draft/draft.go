// Package draft holds the single-slot autosave of the in-progress
// prescription form. A draft is working state, not a committed record: it is
// invisible to the prescription repository and its queries.
package draft

import (
	"time"

	"github.com/google/uuid"

	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/storage"
)

// Draft is a partial prescription plus, when editing, the id of the record
// being edited so a resumed session lands back in edit mode.
type Draft struct {
	prescription.Data
	EditingPrescriptionID *uuid.UUID `json:"editing_prescription_id,omitempty"`
	SavedAt               time.Time  `json:"saved_at"`
}

type Manager struct {
	store *storage.Store
}

func NewManager(store *storage.Store) *Manager {
	return &Manager{store: store}
}

// Save overwrites the draft slot, stamping the save time.
func (m *Manager) Save(d *Draft) error {
	d.SavedAt = time.Now()
	return m.store.Save(storage.SlotDraft, d)
}

// Load returns the draft, or nil when none exists or the slot is corrupt.
// Corruption is treated as absence, not as an error.
func (m *Manager) Load() (*Draft, error) {
	var d Draft
	ok, err := m.store.Load(storage.SlotDraft, &d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// Clear removes the draft slot. Called on explicit save and explicit reset.
func (m *Manager) Clear() error {
	return m.store.Clear(storage.SlotDraft)
}
