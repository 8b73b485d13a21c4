// Package preview projects a committed prescription into a print-ready
// document. The projection is a pure function of its inputs and never
// mutates them.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/session"
)

// Document is the display form of a prescription: the merged header plus the
// committed record's sections, dated by the visit (createdAt).
type Document struct {
	PrescriptionID  uuid.UUID                    `json:"prescription_id"`
	Doctor          prescription.DoctorInfo      `json:"doctor"`
	Patient         prescription.PatientSnapshot `json:"patient"`
	Date            time.Time                    `json:"date"`
	Complaints      string                       `json:"complaints"`
	ChronicDiseases []string                     `json:"chronic_diseases"`
	Vitals          []prescription.Vital         `json:"vitals"`
	Diagnosis       []prescription.DiagnosisItem `json:"diagnosis"`
	Tests           []prescription.TestItem      `json:"tests"`
	Medicines       []prescription.MedicineItem  `json:"medicines"`
	GeneralAdvice   string                       `json:"general_advice"`
	SurgeryAdvice   string                       `json:"surgery_advice"`
	FollowUp        prescription.FollowUp        `json:"follow_up"`
}

// MergeDoctorInfo resolves the header block field by field: the value
// embedded in the prescription wins, then the locally cached doctor info,
// then the live session context. Each field falls back independently.
func MergeDoctorInfo(embedded, cached *prescription.DoctorInfo, sess session.Context) prescription.DoctorInfo {
	pick := func(fields ...string) string {
		for _, f := range fields {
			if f != "" {
				return f
			}
		}
		return ""
	}
	var emb, ca prescription.DoctorInfo
	if embedded != nil {
		emb = *embedded
	}
	if cached != nil {
		ca = *cached
	}
	return prescription.DoctorInfo{
		Name:          pick(emb.Name, ca.Name, sess.Doctor.Name),
		Qualification: pick(emb.Qualification, ca.Qualification, sess.Doctor.Qualification),
		Clinic:        pick(emb.Clinic, ca.Clinic, sess.ActiveClinic.Name),
		Address:       pick(emb.Address, ca.Address, sess.ActiveClinic.Address),
		Phone:         pick(emb.Phone, ca.Phone, sess.Doctor.Phone),
		SignatureURL:  pick(emb.SignatureURL, ca.SignatureURL),
	}
}

// Build projects a committed prescription into a Document.
func Build(p *prescription.Prescription, cached *prescription.DoctorInfo, sess session.Context) *Document {
	doc := &Document{
		PrescriptionID:  p.ID,
		Doctor:          MergeDoctorInfo(p.DoctorInfo, cached, sess),
		Patient:         p.PatientSnapshot,
		Date:            p.CreatedAt,
		Complaints:      p.Complaints,
		GeneralAdvice:   p.GeneralAdvice,
		SurgeryAdvice:   p.SurgeryAdvice,
		FollowUp:        p.FollowUp,
		ChronicDiseases: append([]string(nil), p.ChronicDiseases...),
		Vitals:          append([]prescription.Vital(nil), p.Vitals...),
		Diagnosis:       append([]prescription.DiagnosisItem(nil), p.Diagnosis...),
		Tests:           append([]prescription.TestItem(nil), p.Tests...),
		Medicines:       append([]prescription.MedicineItem(nil), p.Medicines...),
	}
	return doc
}

// RenderText lays the document out as plain text, the contract handed to the
// print/export renderer.
func (d *Document) RenderText() string {
	var b strings.Builder

	if d.Doctor.Name != "" {
		fmt.Fprintf(&b, "%s", d.Doctor.Name)
		if d.Doctor.Qualification != "" {
			fmt.Fprintf(&b, ", %s", d.Doctor.Qualification)
		}
		b.WriteString("\n")
	}
	if d.Doctor.Clinic != "" {
		fmt.Fprintf(&b, "%s\n", d.Doctor.Clinic)
	}
	if d.Doctor.Address != "" {
		fmt.Fprintf(&b, "%s\n", d.Doctor.Address)
	}
	if d.Doctor.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.Doctor.Phone)
	}
	b.WriteString(strings.Repeat("-", 60) + "\n")

	fmt.Fprintf(&b, "Patient: %s", d.Patient.Name)
	if d.Patient.Age != nil {
		fmt.Fprintf(&b, "  Age: %d", *d.Patient.Age)
	}
	if d.Patient.Gender != "" {
		fmt.Fprintf(&b, "  Gender: %s", d.Patient.Gender)
	}
	b.WriteString("\n")
	if d.Patient.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.Patient.Phone)
	}
	if d.Patient.BloodGroup != nil && *d.Patient.BloodGroup != "" {
		fmt.Fprintf(&b, "Blood Group: %s\n", *d.Patient.BloodGroup)
	}
	fmt.Fprintf(&b, "Date: %s\n", d.Date.Format("02 Jan 2006"))
	b.WriteString(strings.Repeat("-", 60) + "\n")

	if d.Complaints != "" {
		fmt.Fprintf(&b, "Complaints: %s\n", d.Complaints)
	}
	if len(d.ChronicDiseases) > 0 {
		fmt.Fprintf(&b, "Chronic: %s\n", strings.Join(d.ChronicDiseases, ", "))
	}
	if len(d.Vitals) > 0 {
		b.WriteString("Vitals:\n")
		for _, v := range d.Vitals {
			fmt.Fprintf(&b, "  %s: %s %s\n", v.Name, v.Result, v.Unit)
		}
	}
	if len(d.Diagnosis) > 0 {
		b.WriteString("Diagnosis:\n")
		for i, item := range d.Diagnosis {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, item.Text)
		}
	}
	if len(d.Tests) > 0 {
		b.WriteString("Tests:\n")
		for _, tst := range d.Tests {
			fmt.Fprintf(&b, "  - %s", tst.TestName)
			if tst.Advice != "" {
				fmt.Fprintf(&b, " (%s)", tst.Advice)
			}
			b.WriteString("\n")
		}
	}
	if len(d.Medicines) > 0 {
		b.WriteString("Rx:\n")
		for i, m := range d.Medicines {
			fmt.Fprintf(&b, "  %d. %s", i+1, m.MedicineName)
			if m.Dose != "" {
				fmt.Fprintf(&b, " %s%s", m.Dose, m.DoseUnit)
			}
			if m.Time != "" {
				fmt.Fprintf(&b, " %s", m.Time)
			}
			if m.Duration != "" {
				fmt.Fprintf(&b, " for %s %s", m.Duration, m.DurationUnit)
			}
			if m.Advice != "" {
				fmt.Fprintf(&b, " (%s)", m.Advice)
			}
			b.WriteString("\n")
		}
	}
	if d.GeneralAdvice != "" {
		fmt.Fprintf(&b, "Advice: %s\n", d.GeneralAdvice)
	}
	if d.SurgeryAdvice != "" {
		fmt.Fprintf(&b, "Surgery Advice: %s\n", d.SurgeryAdvice)
	}
	if d.FollowUp.Required {
		fmt.Fprintf(&b, "Follow-up: %s %s", d.FollowUp.Month, d.FollowUp.Time)
		if d.FollowUp.Notes != "" {
			fmt.Fprintf(&b, " (%s)", d.FollowUp.Notes)
		}
		b.WriteString("\n")
	}

	return b.String()
}
