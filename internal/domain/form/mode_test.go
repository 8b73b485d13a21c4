package form

import (
	"testing"

	"github.com/google/uuid"
)

func TestResolve(t *testing.T) {
	id := uuid.New()

	cases := []struct {
		name   string
		params Params
		want   Mode
		wantID bool
	}{
		{"no params", Params{}, ModeNew, false},
		{"edit with id", Params{ID: id.String(), Mode: "edit"}, ModeEdit, true},
		{"preview with id", Params{ID: id.String(), Mode: "preview"}, ModePreview, true},
		{"edit without id", Params{Mode: "edit"}, ModeNew, false},
		{"preview without id", Params{Mode: "preview"}, ModeNew, false},
		{"malformed id", Params{ID: "not-a-uuid", Mode: "edit"}, ModeNew, false},
		{"id without mode", Params{ID: id.String()}, ModeNew, false},
		{"unknown mode", Params{ID: id.String(), Mode: "archive"}, ModeNew, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(tc.params)
			if res.Mode != tc.want {
				t.Errorf("expected mode %s, got %s", tc.want, res.Mode)
			}
			if tc.wantID && res.PrescriptionID != id {
				t.Errorf("expected id %s, got %s", id, res.PrescriptionID)
			}
			if !tc.wantID && res.PrescriptionID != uuid.Nil {
				t.Errorf("expected no id, got %s", res.PrescriptionID)
			}
		})
	}
}

func TestModeJSONRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeNew, ModeEdit, ModePreview} {
		b, err := m.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got Mode
		if err := got.UnmarshalJSON(b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != m {
			t.Errorf("round trip changed %s to %s", m, got)
		}
	}
}
