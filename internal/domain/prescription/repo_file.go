package prescription

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rxpad/rxpad/internal/platform/storage"
)

// fileRepo mirrors the in-memory prescription collection to the
// prescriptions slot on every mutation. The draft slot is separate and never
// appears here.
type fileRepo struct {
	store *storage.Store
	mu    sync.RWMutex
	items []*Prescription
}

func NewFileRepo(store *storage.Store) (Repository, error) {
	r := &fileRepo{store: store}
	if _, err := store.Load(storage.SlotPrescriptions, &r.items); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileRepo) persist() error {
	return r.store.Save(storage.SlotPrescriptions, r.items)
}

func (r *fileRepo) Add(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.items = append(r.items, &cp)
	return r.persist()
}

func (r *fileRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileRepo) Update(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.items {
		if existing.ID == p.ID {
			cp := *p
			r.items[i] = &cp
			return r.persist()
		}
	}
	return ErrNotFound
}

func (r *fileRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	for _, p := range r.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	r.items = kept
	return r.persist()
}

func (r *fileRepo) DeleteByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	removed := 0
	for _, p := range r.items {
		if p.PatientID == patientID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, r.persist()
}

func (r *fileRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Prescription
	for _, p := range r.items {
		if p.PatientID == patientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fileRepo) ListAll(_ context.Context) ([]*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Prescription, 0, len(r.items))
	for _, p := range r.items {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
