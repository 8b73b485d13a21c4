package patient

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repositories --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Add(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByPhone(_ context.Context, phone string) (*Patient, error) {
	for _, p := range m.patients {
		if p.Phone == phone {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]*Patient, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	return result, nil
}

func (m *mockRepo) Search(_ context.Context, query string) ([]*Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	lower := strings.ToLower(query)
	var result []*Patient
	for _, p := range m.patients {
		if strings.Contains(strings.ToLower(p.Name), lower) ||
			strings.Contains(p.Phone, query) ||
			strings.Contains(p.ID.String(), query) {
			result = append(result, p)
		}
	}
	return result, nil
}

type mockPurger struct {
	prescriptions map[uuid.UUID]int
}

func (m *mockPurger) DeleteByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	n := m.prescriptions[patientID]
	delete(m.prescriptions, patientID)
	return n, nil
}

func newTestService() (*Service, *mockRepo, *mockPurger) {
	repo := newMockRepo()
	purger := &mockPurger{prescriptions: make(map[uuid.UUID]int)}
	return NewService(repo, purger, zerolog.Nop()), repo, purger
}

func TestAdd_NewPatient(t *testing.T) {
	svc, _, _ := newTestService()

	res, err := svc.Add(context.Background(), &Patient{Name: "Asha Rao", Phone: "9876500001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsNew {
		t.Error("expected is_new for a first registration")
	}
	if res.Patient.ID == uuid.Nil {
		t.Error("expected an assigned id")
	}
	if res.Patient.CreatedAt.IsZero() {
		t.Error("expected created_at to be stamped")
	}
}

func TestAdd_DuplicatePhoneReturnsExisting(t *testing.T) {
	svc, repo, _ := newTestService()

	first, err := svc.Add(context.Background(), &Patient{Name: "Asha Rao", Phone: "9876500001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same phone, different name: the stored record must win untouched.
	second, err := svc.Add(context.Background(), &Patient{Name: "A. Rao", Phone: "9876500001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.IsNew {
		t.Error("expected existing record, not a new one")
	}
	if second.Patient.ID != first.Patient.ID {
		t.Errorf("expected id %s, got %s", first.Patient.ID, second.Patient.ID)
	}
	if second.Patient.Name != "Asha Rao" {
		t.Errorf("stored name mutated on duplicate add: %s", second.Patient.Name)
	}
	if len(repo.patients) != 1 {
		t.Errorf("expected 1 stored patient, got %d", len(repo.patients))
	}
}

func TestAdd_RequiresNameAndPhone(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Add(context.Background(), &Patient{Phone: "123"}); err != ErrNameRequired {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
	if _, err := svc.Add(context.Background(), &Patient{Name: "X"}); err != ErrPhoneRequired {
		t.Errorf("expected ErrPhoneRequired, got %v", err)
	}
}

func TestUpdate_MergesPatch(t *testing.T) {
	svc, _, _ := newTestService()

	res, _ := svc.Add(context.Background(), &Patient{Name: "Asha Rao", Phone: "9876500001"})
	age := 34
	name := "Asha R. Rao"
	updated, err := svc.Update(context.Background(), res.Patient.ID, Patch{Name: &name, Age: &age})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Asha R. Rao" {
		t.Errorf("name not updated: %s", updated.Name)
	}
	if updated.Age == nil || *updated.Age != 34 {
		t.Error("age not updated")
	}
	if updated.Phone != "9876500001" {
		t.Errorf("phone changed unexpectedly: %s", updated.Phone)
	}
}

func TestUpdate_UnknownIDResolvesNil(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.Update(context.Background(), uuid.New(), Patch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestUpdate_PhoneConflict(t *testing.T) {
	svc, _, _ := newTestService()

	a, _ := svc.Add(context.Background(), &Patient{Name: "A", Phone: "111"})
	svc.Add(context.Background(), &Patient{Name: "B", Phone: "222"})

	taken := "222"
	if _, err := svc.Update(context.Background(), a.Patient.ID, Patch{Phone: &taken}); err != ErrPhoneInUse {
		t.Errorf("expected ErrPhoneInUse, got %v", err)
	}

	// Re-submitting the current phone is not a conflict.
	same := "111"
	if _, err := svc.Update(context.Background(), a.Patient.ID, Patch{Phone: &same}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDelete_CascadesPrescriptions(t *testing.T) {
	svc, repo, purger := newTestService()

	res, _ := svc.Add(context.Background(), &Patient{Name: "Asha Rao", Phone: "9876500001"})
	purger.prescriptions[res.Patient.ID] = 3

	if err := svc.Delete(context.Background(), res.Patient.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.patients) != 0 {
		t.Error("patient not deleted")
	}
	if _, ok := purger.prescriptions[res.Patient.ID]; ok {
		t.Error("prescriptions not purged")
	}
}

func TestFindByID_UnknownResolvesNil(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.FindByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Error("expected nil patient")
	}
}

func TestSearch_EmptyQueryReturnsNothing(t *testing.T) {
	svc, _, _ := newTestService()
	svc.Add(context.Background(), &Patient{Name: "Asha Rao", Phone: "9876500001"})

	results, err := svc.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
