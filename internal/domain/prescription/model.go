package prescription

import (
	"time"

	"github.com/google/uuid"
)

// PatientSnapshot is the patient-as-of-visit copy embedded in a prescription
// at save time. It is never rewritten when the patient record changes later.
type PatientSnapshot struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	Age            *int    `json:"age"`
	Gender         string  `json:"gender"`
	Address        *string `json:"address,omitempty"`
	BloodGroup     *string `json:"blood_group,omitempty"`
	MedicalHistory *string `json:"medical_history,omitempty"`
}

// DoctorInfo is the display-only header block. Empty fields fall back to the
// doctor-info cache and then the live session context at render time.
type DoctorInfo struct {
	Name          string `json:"name,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	Clinic        string `json:"clinic,omitempty"`
	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	SignatureURL  string `json:"signature_url,omitempty"`
}

type Vital struct {
	Name   string `json:"name"`
	Result string `json:"result"`
	Unit   string `json:"unit"`
}

type DiagnosisItem struct {
	Text string `json:"text"`
}

type TestItem struct {
	TestName string `json:"test_name"`
	TestType string `json:"test_type"`
	Advice   string `json:"advice"`
}

type MedicineItem struct {
	MedicineName string `json:"medicine_name"`
	MedicineType string `json:"medicine_type"`
	Dose         string `json:"dose"`
	DoseUnit     string `json:"dose_unit"`
	Advice       string `json:"advice"`
	Time         string `json:"time"`
	Duration     string `json:"duration"`
	DurationUnit string `json:"duration_unit"`
}

type FollowUp struct {
	Required bool   `json:"required"`
	Month    string `json:"month"`
	Time     string `json:"time"`
	Notes    string `json:"notes"`
}

// Data holds every caller-settable prescription field. It is what the form
// submits on save and what the draft slot stores between saves.
type Data struct {
	PatientID       uuid.UUID       `json:"patient_id"`
	PatientSnapshot PatientSnapshot `json:"patient_snapshot"`
	DoctorInfo      *DoctorInfo     `json:"doctor_info,omitempty"`
	Complaints      string          `json:"complaints"`
	ChronicDiseases []string        `json:"chronic_diseases"`
	Vitals          []Vital         `json:"vitals"`
	Diagnosis       []DiagnosisItem `json:"diagnosis"`
	Tests           []TestItem      `json:"tests"`
	Medicines       []MedicineItem  `json:"medicines"`
	GeneralAdvice   string          `json:"general_advice"`
	SurgeryAdvice   string          `json:"surgery_advice"`
	FollowUp        FollowUp        `json:"follow_up"`
}

// Prescription is a committed record. CreatedAt and ID are immutable once
// set; UpdatedAt is refreshed on every committed save.
type Prescription struct {
	ID uuid.UUID `json:"id"`
	Data
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
