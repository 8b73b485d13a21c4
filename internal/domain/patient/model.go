package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the identity record. Phone is the natural dedupe key; id is the
// stored key. At most one patient per phone value.
type Patient struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Age            *int      `json:"age"`
	Gender         string    `json:"gender"`
	Address        *string   `json:"address"`
	BloodGroup     *string   `json:"blood_group"`
	MedicalHistory *string   `json:"medical_history"`
	CreatedAt      time.Time `json:"created_at"`
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Age            *int    `json:"age,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	Address        *string `json:"address,omitempty"`
	BloodGroup     *string `json:"blood_group,omitempty"`
	MedicalHistory *string `json:"medical_history,omitempty"`
}

// AddResult reports whether Add created a record or matched an existing one
// by phone. The latter is not an error.
type AddResult struct {
	Patient *Patient `json:"patient"`
	IsNew   bool     `json:"is_new"`
}
