package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNameRequired  = errors.New("patient name is required")
	ErrPhoneRequired = errors.New("patient phone is required")
	// ErrPhoneInUse is returned when an update would give two patients the
	// same phone, which would break the dedupe key relied on by Add.
	ErrPhoneInUse = errors.New("phone already belongs to another patient")
)

// PrescriptionPurger removes all prescriptions for a patient. Implemented by
// the prescription repository; deleting a patient cascades through it.
type PrescriptionPurger interface {
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type Service struct {
	repo   Repository
	purger PrescriptionPurger
	log    zerolog.Logger
}

func NewService(repo Repository, purger PrescriptionPurger, log zerolog.Logger) *Service {
	return &Service{repo: repo, purger: purger, log: log}
}

// Add registers a patient, deduplicating by exact phone match. When the phone
// is already known the existing record is returned untouched, even if the
// submitted fields differ: the caller asked to "use this patient", not to
// merge into them.
func (s *Service) Add(ctx context.Context, p *Patient) (*AddResult, error) {
	if p.Name == "" {
		return nil, ErrNameRequired
	}
	if p.Phone == "" {
		return nil, ErrPhoneRequired
	}

	existing, err := s.repo.GetByPhone(ctx, p.Phone)
	if err == nil {
		return &AddResult{Patient: existing, IsNew: false}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	if err := s.repo.Add(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("patient_id", p.ID.String()).Msg("patient created")
	return &AddResult{Patient: p, IsNew: true}, nil
}

// Update merges the patch into the stored record. An unknown id resolves to
// (nil, nil): in this UI a miss means benign stale state, not a fault.
// Changing the phone to one held by a different patient is rejected.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if patch.Phone != nil && *patch.Phone != existing.Phone {
		holder, err := s.repo.GetByPhone(ctx, *patch.Phone)
		if err == nil && holder.ID != id {
			return nil, ErrPhoneInUse
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		existing.Phone = *patch.Phone
	}
	if patch.Name != nil {
		existing.Name = *patch.Name
	}
	if patch.Age != nil {
		existing.Age = patch.Age
	}
	if patch.Gender != nil {
		existing.Gender = *patch.Gender
	}
	if patch.Address != nil {
		existing.Address = patch.Address
	}
	if patch.BloodGroup != nil {
		existing.BloodGroup = patch.BloodGroup
	}
	if patch.MedicalHistory != nil {
		existing.MedicalHistory = patch.MedicalHistory
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes the patient and every prescription referencing them.
// Deleting an unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	n, err := s.purger.DeleteByPatient(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info().Str("patient_id", id.String()).Int("prescriptions", n).Msg("cascade deleted prescriptions")
	}
	return nil
}

// FindByID resolves (nil, nil) when the id is unknown.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// FindByPhone resolves (nil, nil) when no patient holds the phone.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*Patient, error) {
	p, err := s.repo.GetByPhone(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) Search(ctx context.Context, query string) ([]*Patient, error) {
	return s.repo.Search(ctx, query)
}
