package patient

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rxpad/rxpad/internal/platform/storage"
)

// fileRepo keeps the patient collection in memory and mirrors every mutation
// to the patients slot before returning, so no partial-write state is ever
// observable by callers.
type fileRepo struct {
	store    *storage.Store
	mu       sync.RWMutex
	patients []*Patient
}

func NewFileRepo(store *storage.Store) (Repository, error) {
	r := &fileRepo{store: store}
	if _, err := store.Load(storage.SlotPatients, &r.patients); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileRepo) persist() error {
	return r.store.Save(storage.SlotPatients, r.patients)
}

func (r *fileRepo) Add(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.patients = append(r.patients, &cp)
	return r.persist()
}

func (r *fileRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileRepo) GetByPhone(_ context.Context, phone string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileRepo) Update(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.patients {
		if existing.ID == p.ID {
			cp := *p
			r.patients[i] = &cp
			return r.persist()
		}
	}
	return ErrNotFound
}

func (r *fileRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.patients[:0]
	for _, p := range r.patients {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	r.patients = kept
	return r.persist()
}

func (r *fileRepo) List(_ context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fileRepo) Search(_ context.Context, query string) ([]*Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(query)
	var out []*Patient
	for _, p := range r.patients {
		if strings.Contains(strings.ToLower(p.Name), lower) ||
			strings.Contains(p.Phone, query) ||
			strings.Contains(p.ID.String(), query) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
