package form

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Mode is the form's operating mode, resolved from navigation parameters.
type Mode int

const (
	ModeNew Mode = iota
	ModeEdit
	ModePreview
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModePreview:
		return "preview"
	default:
		return "new"
	}
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "edit":
		*m = ModeEdit
	case "preview":
		*m = ModePreview
	default:
		*m = ModeNew
	}
	return nil
}

// Params are the navigation parameters the controller reads. The patient_*
// fields prefill a new form when arriving from a patient list.
type Params struct {
	ID            string `query:"id"`
	Mode          string `query:"mode"`
	PatientID     string `query:"patient_id"`
	PatientName   string `query:"patient_name"`
	PatientPhone  string `query:"patient_phone"`
	PatientAge    string `query:"patient_age"`
	PatientGender string `query:"patient_gender"`
}

// Resolution is the outcome of mode resolution: New, Edit(id) or
// Preview(id). PrescriptionID is set only for Edit and Preview.
type Resolution struct {
	Mode           Mode
	PrescriptionID uuid.UUID
}

// Resolve computes the mode once per navigation event. Edit and preview both
// require a well-formed prescription id; anything else is a new form. Whether
// the id actually resolves to a stored record is the controller's concern; a
// stale id degrades to New there.
func Resolve(p Params) Resolution {
	if p.ID != "" {
		if id, err := uuid.Parse(p.ID); err == nil {
			switch p.Mode {
			case "edit":
				return Resolution{Mode: ModeEdit, PrescriptionID: id}
			case "preview":
				return Resolution{Mode: ModePreview, PrescriptionID: id}
			}
		}
	}
	return Resolution{Mode: ModeNew}
}
