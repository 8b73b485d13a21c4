package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type Repository interface {
	Add(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByPatient removes every prescription for the patient and
	// reports how many were removed. Backs the patient-delete cascade.
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	// ListByPatient returns the patient's prescriptions sorted by
	// createdAt descending. The ordering is a public contract: history
	// and preview views rely on most-recent-first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
	ListAll(ctx context.Context) ([]*Prescription, error)
}
