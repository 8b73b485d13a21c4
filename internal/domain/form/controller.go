// Package form drives the prescription authoring screen: a mutable working
// state, a mode machine (new / edit / preview), debounced draft autosave and
// the save, reset and resume flows.
package form

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/domain/draft"
	"github.com/rxpad/rxpad/internal/domain/patient"
	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/domain/preview"
)

var (
	// ErrReadOnly is returned by every mutator while the form is in preview.
	ErrReadOnly = errors.New("form is read-only in preview mode")
	// ErrPatientIdentityRequired gates saving a patient from the form.
	ErrPatientIdentityRequired = errors.New("please enter patient name and phone")
	// ErrPatientInfoRequired gates saving a prescription with no patient.
	ErrPatientInfoRequired = errors.New("please add patient information first")
	// ErrNoDraft is returned by ResumeDraft when the slot is empty.
	ErrNoDraft = errors.New("no draft to resume")
)

// State is the full working state of the form, returned to the caller after
// every operation.
type State struct {
	Mode                  Mode                         `json:"mode"`
	SelectedPatientID     *uuid.UUID                   `json:"selected_patient_id,omitempty"`
	PatientSnapshot       prescription.PatientSnapshot `json:"patient_snapshot"`
	DoctorInfo            *prescription.DoctorInfo     `json:"doctor_info,omitempty"`
	EditingPrescriptionID *uuid.UUID                   `json:"editing_prescription_id,omitempty"`
	Complaints            string                       `json:"complaints"`
	ChronicDiseases       []string                     `json:"chronic_diseases"`
	Vitals                []prescription.Vital         `json:"vitals"`
	Diagnosis             []prescription.DiagnosisItem `json:"diagnosis"`
	Tests                 []prescription.TestItem      `json:"tests"`
	Medicines             []prescription.MedicineItem  `json:"medicines"`
	GeneralAdvice         string                       `json:"general_advice"`
	SurgeryAdvice         string                       `json:"surgery_advice"`
	FollowUp              prescription.FollowUp        `json:"follow_up"`
	Notice                string                       `json:"notice,omitempty"`
	DraftAvailable        bool                         `json:"draft_available"`
	DraftSavedAt          *time.Time                   `json:"draft_saved_at,omitempty"`
}

// Navigation tells the caller where the flow goes next. ReplaceHistory marks
// transitions that must not leave the editable form on the back stack.
type Navigation struct {
	Mode           Mode       `json:"mode"`
	PrescriptionID *uuid.UUID `json:"prescription_id,omitempty"`
	ReplaceHistory bool       `json:"replace_history"`
}

// Controller owns the form state. All operations are serialized under one
// mutex; the autosaver snapshot closure re-acquires it when the timer fires.
type Controller struct {
	patients      *patient.Service
	prescriptions *prescription.Service
	drafts        *draft.Manager
	auto          *draft.Autosaver
	doctorCache   *preview.DoctorInfoCache
	log           zerolog.Logger

	mu    sync.Mutex
	state State
}

func NewController(
	patients *patient.Service,
	prescriptions *prescription.Service,
	drafts *draft.Manager,
	auto *draft.Autosaver,
	doctorCache *preview.DoctorInfoCache,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		patients:      patients,
		prescriptions: prescriptions,
		drafts:        drafts,
		auto:          auto,
		doctorCache:   doctorCache,
		log:           log,
		state:         emptyState(),
	}
}

func emptyState() State {
	return State{
		Mode:            ModeNew,
		ChronicDiseases: []string{},
		Vitals:          []prescription.Vital{},
		Diagnosis:       []prescription.DiagnosisItem{},
		Tests:           []prescription.TestItem{},
		Medicines:       []prescription.MedicineItem{},
	}
}

// snapshotLocked copies the state for the caller. Slices are copied so later
// mutations cannot leak into a response already handed out.
func (c *Controller) snapshotLocked() State {
	s := c.state
	s.ChronicDiseases = append([]string(nil), c.state.ChronicDiseases...)
	s.Vitals = append([]prescription.Vital(nil), c.state.Vitals...)
	s.Diagnosis = append([]prescription.DiagnosisItem(nil), c.state.Diagnosis...)
	s.Tests = append([]prescription.TestItem(nil), c.state.Tests...)
	s.Medicines = append([]prescription.MedicineItem(nil), c.state.Medicines...)
	return s
}

// State returns a copy of the current working state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) dataLocked() prescription.Data {
	d := prescription.Data{
		PatientSnapshot: c.state.PatientSnapshot,
		DoctorInfo:      c.state.DoctorInfo,
		Complaints:      c.state.Complaints,
		ChronicDiseases: append([]string(nil), c.state.ChronicDiseases...),
		Vitals:          append([]prescription.Vital(nil), c.state.Vitals...),
		Diagnosis:       append([]prescription.DiagnosisItem(nil), c.state.Diagnosis...),
		Tests:           append([]prescription.TestItem(nil), c.state.Tests...),
		Medicines:       append([]prescription.MedicineItem(nil), c.state.Medicines...),
		GeneralAdvice:   c.state.GeneralAdvice,
		SurgeryAdvice:   c.state.SurgeryAdvice,
		FollowUp:        c.state.FollowUp,
	}
	if c.state.SelectedPatientID != nil {
		d.PatientID = *c.state.SelectedPatientID
	}
	return d
}

// touchLocked schedules a debounced draft write. The snapshot closure runs
// when the timer fires and bails out if the form has since entered preview.
func (c *Controller) touchLocked() {
	c.auto.Touch(func() *draft.Draft {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state.Mode == ModePreview {
			return nil
		}
		d := &draft.Draft{
			Data:                  c.dataLocked(),
			EditingPrescriptionID: c.state.EditingPrescriptionID,
		}
		return d
	})
}

// Load resolves navigation parameters into a fresh form state. Edit and
// preview load the stored record; a stale id degrades to a new form. The
// patient_* parameters prefill a new form from the patient list.
func (c *Controller) Load(ctx context.Context, p Params) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.auto.Stop()
	c.state = emptyState()

	if cached, err := c.doctorCache.Load(); err == nil && cached != nil {
		c.state.DoctorInfo = cached
	}

	res := Resolve(p)
	if res.Mode == ModeEdit || res.Mode == ModePreview {
		rec, err := c.prescriptions.Get(ctx, res.PrescriptionID)
		if err != nil {
			return State{}, err
		}
		if rec != nil {
			c.loadRecordLocked(rec, res.Mode)
			return c.snapshotLocked(), nil
		}
		c.log.Warn().Str("prescription_id", res.PrescriptionID.String()).
			Msg("prescription id did not resolve, starting a new form")
	}

	c.state.Mode = ModeNew
	c.applyPatientParamsLocked(ctx, p)

	if d, err := c.drafts.Load(); err == nil && d != nil {
		c.state.DraftAvailable = true
		savedAt := d.SavedAt
		c.state.DraftSavedAt = &savedAt
	}
	return c.snapshotLocked(), nil
}

func (c *Controller) loadRecordLocked(rec *prescription.Prescription, mode Mode) {
	c.state.Mode = mode
	id := rec.ID
	c.state.EditingPrescriptionID = &id
	if rec.PatientID != uuid.Nil {
		pid := rec.PatientID
		c.state.SelectedPatientID = &pid
	}
	c.state.PatientSnapshot = rec.PatientSnapshot
	if rec.DoctorInfo != nil {
		info := *rec.DoctorInfo
		c.state.DoctorInfo = &info
	}
	c.state.Complaints = rec.Complaints
	c.state.ChronicDiseases = append([]string{}, rec.ChronicDiseases...)
	c.state.Vitals = append([]prescription.Vital{}, rec.Vitals...)
	c.state.Diagnosis = append([]prescription.DiagnosisItem{}, rec.Diagnosis...)
	c.state.Tests = append([]prescription.TestItem{}, rec.Tests...)
	c.state.Medicines = append([]prescription.MedicineItem{}, rec.Medicines...)
	c.state.GeneralAdvice = rec.GeneralAdvice
	c.state.SurgeryAdvice = rec.SurgeryAdvice
	c.state.FollowUp = rec.FollowUp
}

func (c *Controller) applyPatientParamsLocked(ctx context.Context, p Params) {
	if p.PatientID != "" {
		if pid, err := uuid.Parse(p.PatientID); err == nil {
			if rec, err := c.patients.FindByID(ctx, pid); err == nil && rec != nil {
				c.selectPatientLocked(rec)
				c.state.Notice = "Patient loaded from records"
				return
			}
		}
	}
	if p.PatientName != "" || p.PatientPhone != "" {
		c.state.PatientSnapshot.Name = p.PatientName
		c.state.PatientSnapshot.Phone = p.PatientPhone
		c.state.PatientSnapshot.Gender = p.PatientGender
		if p.PatientAge != "" {
			if age, err := strconv.Atoi(p.PatientAge); err == nil {
				c.state.PatientSnapshot.Age = &age
			}
		}
	}
}

func (c *Controller) selectPatientLocked(rec *patient.Patient) {
	pid := rec.ID
	c.state.SelectedPatientID = &pid
	c.state.PatientSnapshot = prescription.PatientSnapshot{
		Name:           rec.Name,
		Phone:          rec.Phone,
		Age:            rec.Age,
		Gender:         rec.Gender,
		Address:        rec.Address,
		BloodGroup:     rec.BloodGroup,
		MedicalHistory: rec.MedicalHistory,
	}
}

// ResumeDraft restores the saved draft into the form. Resumption is always
// explicit; Load only reports that a draft exists.
func (c *Controller) ResumeDraft(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.drafts.Load()
	if err != nil {
		return State{}, err
	}
	if d == nil {
		return State{}, ErrNoDraft
	}

	c.state = emptyState()
	c.state.Mode = ModeNew
	if d.EditingPrescriptionID != nil {
		c.state.Mode = ModeEdit
		id := *d.EditingPrescriptionID
		c.state.EditingPrescriptionID = &id
	}
	if d.PatientID != uuid.Nil {
		pid := d.PatientID
		c.state.SelectedPatientID = &pid
	}
	c.state.PatientSnapshot = d.PatientSnapshot
	c.state.DoctorInfo = d.Data.DoctorInfo
	c.state.Complaints = d.Complaints
	c.state.ChronicDiseases = append([]string{}, d.ChronicDiseases...)
	c.state.Vitals = append([]prescription.Vital{}, d.Vitals...)
	c.state.Diagnosis = append([]prescription.DiagnosisItem{}, d.Diagnosis...)
	c.state.Tests = append([]prescription.TestItem{}, d.Tests...)
	c.state.Medicines = append([]prescription.MedicineItem{}, d.Medicines...)
	c.state.GeneralAdvice = d.GeneralAdvice
	c.state.SurgeryAdvice = d.SurgeryAdvice
	c.state.FollowUp = d.FollowUp
	savedAt := d.SavedAt
	c.state.DraftSavedAt = &savedAt
	c.state.Notice = "Draft restored"
	return c.snapshotLocked(), nil
}

// SavePatient commits the current patient snapshot to the record store and
// adopts the stored identity. Saving an already-known phone number reuses the
// existing record without mutating it.
func (c *Controller) SavePatient(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModePreview {
		return State{}, ErrReadOnly
	}
	snap := c.state.PatientSnapshot
	if strings.TrimSpace(snap.Name) == "" || strings.TrimSpace(snap.Phone) == "" {
		return State{}, ErrPatientIdentityRequired
	}

	res, err := c.patients.Add(ctx, &patient.Patient{
		Name:           strings.TrimSpace(snap.Name),
		Phone:          strings.TrimSpace(snap.Phone),
		Age:            snap.Age,
		Gender:         snap.Gender,
		Address:        snap.Address,
		BloodGroup:     snap.BloodGroup,
		MedicalHistory: snap.MedicalHistory,
	})
	if err != nil {
		return State{}, err
	}

	pid := res.Patient.ID
	c.state.SelectedPatientID = &pid
	if res.IsNew {
		c.state.Notice = "Patient saved successfully"
	} else {
		c.state.Notice = "Patient is already present, using existing record"
	}
	c.touchLocked()
	return c.snapshotLocked(), nil
}

// SelectPatient loads a stored patient into the form snapshot.
func (c *Controller) SelectPatient(ctx context.Context, id uuid.UUID) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModePreview {
		return State{}, ErrReadOnly
	}
	rec, err := c.patients.FindByID(ctx, id)
	if err != nil {
		return State{}, err
	}
	if rec == nil {
		return State{}, patient.ErrNotFound
	}
	c.selectPatientLocked(rec)
	c.state.Notice = "Patient loaded from records"
	c.touchLocked()
	return c.snapshotLocked(), nil
}

// SavePrescription commits the form as a prescription record. Editing reuses
// the record under edit; a new form with no selected patient auto-provisions
// one from the snapshot when name and phone are present. On success the
// draft is cleared, any pending autosave is cancelled and the form moves to
// preview of the saved record.
func (c *Controller) SavePrescription(ctx context.Context) (State, Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModePreview {
		return State{}, Navigation{}, ErrReadOnly
	}
	if strings.TrimSpace(c.state.PatientSnapshot.Name) == "" {
		return State{}, Navigation{}, ErrPatientInfoRequired
	}

	if c.state.SelectedPatientID == nil {
		snap := c.state.PatientSnapshot
		if strings.TrimSpace(snap.Phone) == "" {
			return State{}, Navigation{}, ErrPatientInfoRequired
		}
		res, err := c.patients.Add(ctx, &patient.Patient{
			Name:           strings.TrimSpace(snap.Name),
			Phone:          strings.TrimSpace(snap.Phone),
			Age:            snap.Age,
			Gender:         snap.Gender,
			Address:        snap.Address,
			BloodGroup:     snap.BloodGroup,
			MedicalHistory: snap.MedicalHistory,
		})
		if err != nil {
			return State{}, Navigation{}, err
		}
		pid := res.Patient.ID
		c.state.SelectedPatientID = &pid
	}

	rec, err := c.prescriptions.Save(ctx, c.dataLocked(), c.state.EditingPrescriptionID)
	if err != nil {
		return State{}, Navigation{}, err
	}

	c.auto.Stop()
	if err := c.drafts.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear draft after save")
	}

	id := rec.ID
	c.state.Mode = ModePreview
	c.state.EditingPrescriptionID = &id
	c.state.DraftAvailable = false
	c.state.DraftSavedAt = nil
	c.state.Notice = "Prescription saved"

	nav := Navigation{Mode: ModePreview, PrescriptionID: &id, ReplaceHistory: true}
	return c.snapshotLocked(), nav, nil
}

// Reset discards the working state and the draft and returns to an empty new
// form. The doctor header block survives a reset.
func (c *Controller) Reset(ctx context.Context) (State, Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.auto.Stop()
	if err := c.drafts.Clear(); err != nil {
		return State{}, Navigation{}, err
	}

	doctor := c.state.DoctorInfo
	c.state = emptyState()
	c.state.DoctorInfo = doctor

	nav := Navigation{Mode: ModeNew, ReplaceHistory: true}
	return c.snapshotLocked(), nav, nil
}

// Delete removes the record under edit or preview, then resets the form.
func (c *Controller) Delete(ctx context.Context) (State, Navigation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.EditingPrescriptionID != nil {
		if err := c.prescriptions.Delete(ctx, *c.state.EditingPrescriptionID); err != nil {
			return State{}, Navigation{}, err
		}
	}

	c.auto.Stop()
	if err := c.drafts.Clear(); err != nil {
		return State{}, Navigation{}, err
	}

	doctor := c.state.DoctorInfo
	c.state = emptyState()
	c.state.DoctorInfo = doctor

	nav := Navigation{Mode: ModeNew, ReplaceHistory: true}
	return c.snapshotLocked(), nav, nil
}

// mutate runs fn under the lock with the read-only guard and schedules a
// debounced draft save afterwards.
func (c *Controller) mutate(fn func()) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModePreview {
		return State{}, ErrReadOnly
	}
	fn()
	c.touchLocked()
	return c.snapshotLocked(), nil
}

func (c *Controller) SetPatientSnapshot(snap prescription.PatientSnapshot) (State, error) {
	return c.mutate(func() {
		c.state.PatientSnapshot = snap
		// Hand-edited identity detaches the form from any stored record.
		c.state.SelectedPatientID = nil
	})
}

// SetDoctorInfo updates the header block and refreshes the cache when the
// block carries a name or a signature.
func (c *Controller) SetDoctorInfo(info prescription.DoctorInfo) (State, error) {
	return c.mutate(func() {
		c.state.DoctorInfo = &info
		if info.Name != "" || info.SignatureURL != "" {
			if err := c.doctorCache.Save(&info); err != nil {
				c.log.Warn().Err(err).Msg("failed to cache doctor info")
			}
		}
	})
}

func (c *Controller) SetComplaints(text string) (State, error) {
	return c.mutate(func() { c.state.Complaints = text })
}

func (c *Controller) SetGeneralAdvice(text string) (State, error) {
	return c.mutate(func() { c.state.GeneralAdvice = text })
}

func (c *Controller) SetSurgeryAdvice(text string) (State, error) {
	return c.mutate(func() { c.state.SurgeryAdvice = text })
}

func (c *Controller) SetFollowUp(f prescription.FollowUp) (State, error) {
	return c.mutate(func() { c.state.FollowUp = f })
}

// ToggleChronicDisease adds the disease if absent and removes it if present.
func (c *Controller) ToggleChronicDisease(name string) (State, error) {
	return c.mutate(func() {
		for i, d := range c.state.ChronicDiseases {
			if d == name {
				c.state.ChronicDiseases = append(c.state.ChronicDiseases[:i], c.state.ChronicDiseases[i+1:]...)
				return
			}
		}
		c.state.ChronicDiseases = append(c.state.ChronicDiseases, name)
	})
}

// AddDiagnosis appends a diagnosis line. Blank input is ignored.
func (c *Controller) AddDiagnosis(text string) (State, error) {
	return c.mutate(func() {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		c.state.Diagnosis = append(c.state.Diagnosis, prescription.DiagnosisItem{Text: text})
	})
}

func (c *Controller) EditDiagnosis(index int, text string) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Diagnosis) {
			return
		}
		c.state.Diagnosis[index].Text = text
	})
}

func (c *Controller) RemoveDiagnosis(index int) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Diagnosis) {
			return
		}
		c.state.Diagnosis = append(c.state.Diagnosis[:index], c.state.Diagnosis[index+1:]...)
	})
}

func (c *Controller) AddTest(t prescription.TestItem) (State, error) {
	return c.mutate(func() {
		if strings.TrimSpace(t.TestName) == "" {
			return
		}
		c.state.Tests = append(c.state.Tests, t)
	})
}

func (c *Controller) RemoveTest(index int) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Tests) {
			return
		}
		c.state.Tests = append(c.state.Tests[:index], c.state.Tests[index+1:]...)
	})
}

func (c *Controller) AddVital(v prescription.Vital) (State, error) {
	return c.mutate(func() {
		if strings.TrimSpace(v.Name) == "" {
			return
		}
		c.state.Vitals = append(c.state.Vitals, v)
	})
}

func (c *Controller) UpdateVital(index int, v prescription.Vital) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Vitals) {
			return
		}
		c.state.Vitals[index] = v
	})
}

func (c *Controller) RemoveVital(index int) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Vitals) {
			return
		}
		c.state.Vitals = append(c.state.Vitals[:index], c.state.Vitals[index+1:]...)
	})
}

func (c *Controller) AddMedicine(m prescription.MedicineItem) (State, error) {
	return c.mutate(func() {
		if strings.TrimSpace(m.MedicineName) == "" {
			return
		}
		c.state.Medicines = append(c.state.Medicines, m)
	})
}

func (c *Controller) UpdateMedicine(index int, m prescription.MedicineItem) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Medicines) {
			return
		}
		c.state.Medicines[index] = m
	})
}

func (c *Controller) RemoveMedicine(index int) (State, error) {
	return c.mutate(func() {
		if index < 0 || index >= len(c.state.Medicines) {
			return
		}
		c.state.Medicines = append(c.state.Medicines[:index], c.state.Medicines[index+1:]...)
	})
}
