package form

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/rxpad/rxpad/internal/domain/draft"
	"github.com/rxpad/rxpad/internal/domain/patient"
	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/domain/preview"
	"github.com/rxpad/rxpad/internal/platform/storage"
)

type fixture struct {
	ctrl     *Controller
	patients *patient.Service
	rx       *prescription.Service
	drafts   *draft.Manager
	store    *storage.Store
}

// newFixture wires a controller over in-memory slots with a short autosave
// debounce so tests can wait it out.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	store, err := storage.New(afero.NewMemMapFs(), "/data", log)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	patientRepo, err := patient.NewFileRepo(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rxRepo, err := prescription.NewFileRepo(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rxSvc := prescription.NewService(rxRepo, log)
	patientSvc := patient.NewService(patientRepo, rxRepo, log)
	drafts := draft.NewManager(store)
	auto := draft.NewAutosaver(drafts, 15*time.Millisecond, log)
	cache := preview.NewDoctorInfoCache(store)

	return &fixture{
		ctrl:     NewController(patientSvc, rxSvc, drafts, auto, cache, log),
		patients: patientSvc,
		rx:       rxSvc,
		drafts:   drafts,
		store:    store,
	}
}

func (f *fixture) fillPatient(t *testing.T, name, phone string) {
	t.Helper()
	_, err := f.ctrl.SetPatientSnapshot(prescription.PatientSnapshot{Name: name, Phone: phone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewPrescriptionFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.ctrl.Load(ctx, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != ModeNew {
		t.Fatalf("expected new mode, got %s", s.Mode)
	}

	f.fillPatient(t, "Asha Rao", "9876500001")
	s, err = f.ctrl.SavePatient(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SelectedPatientID == nil {
		t.Fatal("expected a selected patient after save")
	}
	if s.Notice != "Patient saved successfully" {
		t.Errorf("unexpected notice: %q", s.Notice)
	}

	f.ctrl.SetComplaints("Fever for 3 days")
	f.ctrl.AddMedicine(prescription.MedicineItem{MedicineName: "Paracetamol", Dose: "500", DoseUnit: "mg"})

	s, nav, err := f.ctrl.SavePrescription(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != ModePreview {
		t.Errorf("expected preview mode after save, got %s", s.Mode)
	}
	if nav.Mode != ModePreview || nav.PrescriptionID == nil || !nav.ReplaceHistory {
		t.Error("expected replace-history navigation to preview")
	}

	// The committed record carries the authored data.
	rec, err := f.rx.Get(ctx, *nav.PrescriptionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil || rec.Complaints != "Fever for 3 days" {
		t.Error("saved record missing authored data")
	}
	if rec.PatientID != *s.SelectedPatientID {
		t.Error("record not linked to the saved patient")
	}

	// Draft is gone after an explicit save.
	d, _ := f.drafts.Load()
	if d != nil {
		t.Error("draft survived an explicit save")
	}
}

func TestSavePatient_DuplicatePhoneReusesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.fillPatient(t, "Asha Rao", "9876500001")
	first, err := f.ctrl.SavePatient(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.ctrl.Reset(ctx)
	f.fillPatient(t, "A. Rao", "9876500001")
	second, err := f.ctrl.SavePatient(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *second.SelectedPatientID != *first.SelectedPatientID {
		t.Error("duplicate phone created a second patient")
	}
	if second.Notice != "Patient is already present, using existing record" {
		t.Errorf("unexpected notice: %q", second.Notice)
	}

	all, _ := f.patients.List(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 patient, got %d", len(all))
	}
}

func TestSavePatient_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background(), Params{})

	if _, err := f.ctrl.SavePatient(context.Background()); err != ErrPatientIdentityRequired {
		t.Errorf("expected ErrPatientIdentityRequired, got %v", err)
	}
}

func TestSavePrescription_RequiresPatientInfo(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background(), Params{})

	if _, _, err := f.ctrl.SavePrescription(context.Background()); err != ErrPatientInfoRequired {
		t.Errorf("expected ErrPatientInfoRequired, got %v", err)
	}
}

func TestSavePrescription_AutoProvisionsPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.fillPatient(t, "Asha Rao", "9876500001")
	// No explicit SavePatient: saving the prescription registers them.
	_, nav, err := f.ctrl.SavePrescription(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := f.patients.FindByPhone(ctx, "9876500001")
	if err != nil || p == nil {
		t.Fatal("patient not auto-provisioned")
	}
	rec, _ := f.rx.Get(ctx, *nav.PrescriptionID)
	if rec.PatientID != p.ID {
		t.Error("record not linked to provisioned patient")
	}
}

func TestEditFlow_PreservesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.fillPatient(t, "Asha Rao", "9876500001")
	f.ctrl.SetComplaints("Fever")
	_, nav, err := f.ctrl.SavePrescription(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original, _ := f.rx.Get(ctx, *nav.PrescriptionID)

	time.Sleep(5 * time.Millisecond)
	s, err := f.ctrl.Load(ctx, Params{ID: nav.PrescriptionID.String(), Mode: "edit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != ModeEdit {
		t.Fatalf("expected edit mode, got %s", s.Mode)
	}
	if s.Complaints != "Fever" {
		t.Error("existing data not loaded into the form")
	}

	f.ctrl.SetComplaints("Fever resolved")
	_, nav2, err := f.ctrl.SavePrescription(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *nav2.PrescriptionID != original.ID {
		t.Error("edit created a new record")
	}
	updated, _ := f.rx.Get(ctx, original.ID)
	if !updated.CreatedAt.Equal(original.CreatedAt) {
		t.Error("edit changed created_at")
	}
	if !updated.UpdatedAt.After(original.UpdatedAt) {
		t.Error("edit did not advance updated_at")
	}
	if updated.Complaints != "Fever resolved" {
		t.Error("edit did not persist new data")
	}

	all, _ := f.rx.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 record after edit, got %d", len(all))
	}
}

func TestLoad_StaleIDDegradesToNew(t *testing.T) {
	f := newFixture(t)

	s, err := f.ctrl.Load(context.Background(), Params{ID: uuid.NewString(), Mode: "edit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != ModeNew {
		t.Errorf("expected stale id to degrade to new, got %s", s.Mode)
	}
}

func TestLoad_PatientParamsPrefill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.patients.Add(ctx, &patient.Patient{Name: "Asha Rao", Phone: "9876500001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := f.ctrl.Load(ctx, Params{PatientID: res.Patient.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SelectedPatientID == nil || *s.SelectedPatientID != res.Patient.ID {
		t.Error("patient not selected from params")
	}
	if s.PatientSnapshot.Name != "Asha Rao" {
		t.Error("snapshot not prefilled")
	}
	if s.Notice != "Patient loaded from records" {
		t.Errorf("unexpected notice: %q", s.Notice)
	}
}

func TestLoad_LoosePatientParamsPrefillWithoutSelection(t *testing.T) {
	f := newFixture(t)

	s, err := f.ctrl.Load(context.Background(), Params{
		PatientName:  "Walk In",
		PatientPhone: "9000000000",
		PatientAge:   "28",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SelectedPatientID != nil {
		t.Error("loose params must not select a stored patient")
	}
	if s.PatientSnapshot.Name != "Walk In" || s.PatientSnapshot.Phone != "9000000000" {
		t.Error("snapshot not prefilled from params")
	}
	if s.PatientSnapshot.Age == nil || *s.PatientSnapshot.Age != 28 {
		t.Error("age not parsed from params")
	}
}

func TestPreviewModeIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.fillPatient(t, "Asha Rao", "9876500001")
	_, _, err := f.ctrl.SavePrescription(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.ctrl.SetComplaints("mutated"); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if _, err := f.ctrl.AddMedicine(prescription.MedicineItem{MedicineName: "X"}); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if _, err := f.ctrl.SavePatient(ctx); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestAutosaveAndResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.fillPatient(t, "Asha Rao", "9876500001")
	f.ctrl.SetComplaints("Fever for 3 days")

	// Wait out the debounce so the draft lands.
	time.Sleep(60 * time.Millisecond)
	d, err := f.drafts.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.Complaints != "Fever for 3 days" {
		t.Fatal("draft not autosaved")
	}

	// A fresh load reports the draft without restoring it.
	s, err := f.ctrl.Load(ctx, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.DraftAvailable {
		t.Error("expected draft_available on a new form")
	}
	if s.Complaints != "" {
		t.Error("draft restored implicitly")
	}

	s, err = f.ctrl.ResumeDraft(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Complaints != "Fever for 3 days" {
		t.Error("draft not restored on explicit resume")
	}
}

func TestResumeDraft_NoDraft(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background(), Params{})

	if _, err := f.ctrl.ResumeDraft(context.Background()); err != ErrNoDraft {
		t.Errorf("expected ErrNoDraft, got %v", err)
	}
}

func TestReset_ClearsDraftAndFieldsKeepsDoctorInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.ctrl.SetDoctorInfo(prescription.DoctorInfo{Name: "Dr. Meera Nair"})
	f.fillPatient(t, "Asha Rao", "9876500001")
	f.ctrl.SetComplaints("Fever")
	time.Sleep(60 * time.Millisecond)

	s, nav, err := f.ctrl.Reset(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Mode != ModeNew || !nav.ReplaceHistory {
		t.Error("expected replace-history navigation to a new form")
	}
	if s.Complaints != "" || s.PatientSnapshot.Name != "" {
		t.Error("fields survived the reset")
	}
	if s.DoctorInfo == nil || s.DoctorInfo.Name != "Dr. Meera Nair" {
		t.Error("doctor info must survive a reset")
	}

	d, _ := f.drafts.Load()
	if d != nil {
		t.Error("draft survived the reset")
	}

	// No late autosave may resurrect the draft.
	time.Sleep(60 * time.Millisecond)
	d, _ = f.drafts.Load()
	if d != nil {
		t.Error("pending autosave fired after reset")
	}
}

func TestDelete_RemovesRecordAndResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.Load(ctx, Params{})
	f.fillPatient(t, "Asha Rao", "9876500001")
	_, nav, err := f.ctrl.SavePrescription(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := *nav.PrescriptionID

	s, nav2, err := f.ctrl.Delete(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != ModeNew || nav2.Mode != ModeNew {
		t.Error("expected a new form after delete")
	}
	rec, _ := f.rx.Get(ctx, id)
	if rec != nil {
		t.Error("record survived the delete")
	}
}

func TestListMutations(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Load(context.Background(), Params{})

	f.ctrl.AddDiagnosis("  Viral fever  ")
	s, _ := f.ctrl.AddDiagnosis("   ")
	if len(s.Diagnosis) != 1 {
		t.Fatalf("expected 1 diagnosis, got %d", len(s.Diagnosis))
	}
	if s.Diagnosis[0].Text != "Viral fever" {
		t.Errorf("expected trimmed text, got %q", s.Diagnosis[0].Text)
	}

	s, _ = f.ctrl.EditDiagnosis(0, "Dengue suspected")
	if s.Diagnosis[0].Text != "Dengue suspected" {
		t.Error("edit did not apply")
	}

	// Out-of-range indexes are no-ops.
	s, err := f.ctrl.RemoveDiagnosis(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Diagnosis) != 1 {
		t.Error("out-of-range remove mutated the list")
	}

	s, _ = f.ctrl.ToggleChronicDisease("Diabetes")
	if len(s.ChronicDiseases) != 1 {
		t.Error("toggle did not add")
	}
	s, _ = f.ctrl.ToggleChronicDisease("Diabetes")
	if len(s.ChronicDiseases) != 0 {
		t.Error("toggle did not remove")
	}

	s, _ = f.ctrl.AddVital(prescription.Vital{Name: "BP", Result: "120/80", Unit: "mmHg"})
	s, _ = f.ctrl.UpdateVital(0, prescription.Vital{Name: "BP", Result: "130/85", Unit: "mmHg"})
	if s.Vitals[0].Result != "130/85" {
		t.Error("vital update did not apply")
	}
	s, _ = f.ctrl.RemoveVital(0)
	if len(s.Vitals) != 0 {
		t.Error("vital remove did not apply")
	}
}

func TestSetDoctorInfo_CachesWhenNamed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := preview.NewDoctorInfoCache(f.store)

	f.ctrl.Load(ctx, Params{})
	f.ctrl.SetDoctorInfo(prescription.DoctorInfo{Name: "Dr. Meera Nair", Qualification: "MBBS, MD"})

	cached, err := cache.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached == nil || cached.Name != "Dr. Meera Nair" {
		t.Fatal("doctor info not cached")
	}

	// A later load starts from the cached header.
	s, err := f.ctrl.Load(ctx, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DoctorInfo == nil || s.DoctorInfo.Qualification != "MBBS, MD" {
		t.Error("cached doctor info not preloaded")
	}
}
