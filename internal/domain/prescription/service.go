package prescription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Save is the single mutation path for both create and edit. When existingID
// resolves to a stored record, the submitted data is merged over it with
// updatedAt refreshed and id/createdAt preserved; otherwise a new record is
// created. Callers never distinguish the two cases explicitly.
func (s *Service) Save(ctx context.Context, data Data, existingID *uuid.UUID) (*Prescription, error) {
	now := time.Now()

	if existingID != nil {
		existing, err := s.repo.GetByID(ctx, *existingID)
		if err == nil {
			existing.Data = data
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Stale id: fall through and create fresh.
	}

	p := &Prescription{
		ID:        uuid.New(),
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Add(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("prescription_id", p.ID.String()).Msg("prescription created")
	return p, nil
}

// Get resolves (nil, nil) when the id is unknown.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// Delete removes a prescription unconditionally. No cascade: prescriptions
// do not own patients. Deleting an unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ListByPatient returns the patient's history, most recent first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListAll(ctx context.Context) ([]*Prescription, error) {
	return s.repo.ListAll(ctx)
}
