package form

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rxpad/rxpad/internal/domain/patient"
	"github.com/rxpad/rxpad/internal/domain/prescription"
)

// Handler exposes the form controller over HTTP. State-changing endpoints
// return the full form state so the caller never has to re-fetch.
type Handler struct {
	ctrl *Controller
}

func NewHandler(ctrl *Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/form", h.Load)
	api.POST("/form/patient", h.SavePatient)
	api.POST("/form/save", h.SavePrescription)
	api.POST("/form/reset", h.Reset)
	api.POST("/form/resume-draft", h.ResumeDraft)
	api.POST("/form/select-patient", h.SelectPatient)
	api.DELETE("/form", h.Delete)
	api.PUT("/form/fields", h.SetFields)
	api.POST("/form/chronic-diseases/toggle", h.ToggleChronicDisease)
	api.POST("/form/diagnosis", h.AddDiagnosis)
	api.PUT("/form/diagnosis/:index", h.EditDiagnosis)
	api.DELETE("/form/diagnosis/:index", h.RemoveDiagnosis)
	api.POST("/form/tests", h.AddTest)
	api.DELETE("/form/tests/:index", h.RemoveTest)
	api.POST("/form/vitals", h.AddVital)
	api.PUT("/form/vitals/:index", h.UpdateVital)
	api.DELETE("/form/vitals/:index", h.RemoveVital)
	api.POST("/form/medicines", h.AddMedicine)
	api.PUT("/form/medicines/:index", h.UpdateMedicine)
	api.DELETE("/form/medicines/:index", h.RemoveMedicine)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrReadOnly):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrPatientIdentityRequired),
		errors.Is(err, ErrPatientInfoRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoDraft):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "form operation failed")
	}
}

func respondState(c echo.Context, s State, err error) error {
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

// stateWithNav is the save/reset/delete response shape.
type stateWithNav struct {
	State      State      `json:"state"`
	Navigation Navigation `json:"navigation"`
}

func respondNav(c echo.Context, s State, nav Navigation, err error) error {
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stateWithNav{State: s, Navigation: nav})
}

func (h *Handler) Load(c echo.Context) error {
	var p Params
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	s, err := h.ctrl.Load(c.Request().Context(), p)
	return respondState(c, s, err)
}

func (h *Handler) SavePatient(c echo.Context) error {
	s, err := h.ctrl.SavePatient(c.Request().Context())
	return respondState(c, s, err)
}

func (h *Handler) SavePrescription(c echo.Context) error {
	s, nav, err := h.ctrl.SavePrescription(c.Request().Context())
	return respondNav(c, s, nav, err)
}

func (h *Handler) Reset(c echo.Context) error {
	s, nav, err := h.ctrl.Reset(c.Request().Context())
	return respondNav(c, s, nav, err)
}

func (h *Handler) ResumeDraft(c echo.Context) error {
	s, err := h.ctrl.ResumeDraft(c.Request().Context())
	return respondState(c, s, err)
}

type selectPatientRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) SelectPatient(c echo.Context) error {
	var req selectPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.SelectPatient(c.Request().Context(), req.PatientID)
	return respondState(c, s, err)
}

func (h *Handler) Delete(c echo.Context) error {
	s, nav, err := h.ctrl.Delete(c.Request().Context())
	return respondNav(c, s, nav, err)
}

// setFieldsRequest carries scalar field updates. Only the fields present in
// the body are applied.
type setFieldsRequest struct {
	PatientSnapshot *prescription.PatientSnapshot `json:"patient_snapshot,omitempty"`
	DoctorInfo      *prescription.DoctorInfo      `json:"doctor_info,omitempty"`
	Complaints      *string                       `json:"complaints,omitempty"`
	GeneralAdvice   *string                       `json:"general_advice,omitempty"`
	SurgeryAdvice   *string                       `json:"surgery_advice,omitempty"`
	FollowUp        *prescription.FollowUp        `json:"follow_up,omitempty"`
}

func (h *Handler) SetFields(c echo.Context) error {
	var req setFieldsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var (
		s   State
		err error
	)
	apply := func(f func() (State, error)) {
		if err != nil {
			return
		}
		s, err = f()
	}
	if req.PatientSnapshot != nil {
		apply(func() (State, error) { return h.ctrl.SetPatientSnapshot(*req.PatientSnapshot) })
	}
	if req.DoctorInfo != nil {
		apply(func() (State, error) { return h.ctrl.SetDoctorInfo(*req.DoctorInfo) })
	}
	if req.Complaints != nil {
		apply(func() (State, error) { return h.ctrl.SetComplaints(*req.Complaints) })
	}
	if req.GeneralAdvice != nil {
		apply(func() (State, error) { return h.ctrl.SetGeneralAdvice(*req.GeneralAdvice) })
	}
	if req.SurgeryAdvice != nil {
		apply(func() (State, error) { return h.ctrl.SetSurgeryAdvice(*req.SurgeryAdvice) })
	}
	if req.FollowUp != nil {
		apply(func() (State, error) { return h.ctrl.SetFollowUp(*req.FollowUp) })
	}
	if err != nil {
		return httpError(err)
	}
	if req.PatientSnapshot == nil && req.DoctorInfo == nil && req.Complaints == nil &&
		req.GeneralAdvice == nil && req.SurgeryAdvice == nil && req.FollowUp == nil {
		s = h.ctrl.State()
	}
	return c.JSON(http.StatusOK, s)
}

type toggleChronicRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) ToggleChronicDisease(c echo.Context) error {
	var req toggleChronicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.ctrl.ToggleChronicDisease(req.Name)
	return respondState(c, s, err)
}

type diagnosisRequest struct {
	Text string `json:"text"`
}

func (h *Handler) AddDiagnosis(c echo.Context) error {
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.AddDiagnosis(req.Text)
	return respondState(c, s, err)
}

func indexParam(c echo.Context) (int, error) {
	var index int
	if err := echo.PathParamsBinder(c).Int("index", &index).BindError(); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	return index, nil
}

func (h *Handler) EditDiagnosis(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.EditDiagnosis(index, req.Text)
	return respondState(c, s, err)
}

func (h *Handler) RemoveDiagnosis(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	s, err := h.ctrl.RemoveDiagnosis(index)
	return respondState(c, s, err)
}

func (h *Handler) AddTest(c echo.Context) error {
	var t prescription.TestItem
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.AddTest(t)
	return respondState(c, s, err)
}

func (h *Handler) RemoveTest(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	s, err := h.ctrl.RemoveTest(index)
	return respondState(c, s, err)
}

func (h *Handler) AddVital(c echo.Context) error {
	var v prescription.Vital
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.AddVital(v)
	return respondState(c, s, err)
}

func (h *Handler) UpdateVital(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	var v prescription.Vital
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.UpdateVital(index, v)
	return respondState(c, s, err)
}

func (h *Handler) RemoveVital(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	s, err := h.ctrl.RemoveVital(index)
	return respondState(c, s, err)
}

func (h *Handler) AddMedicine(c echo.Context) error {
	var m prescription.MedicineItem
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.AddMedicine(m)
	return respondState(c, s, err)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	var m prescription.MedicineItem
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.ctrl.UpdateMedicine(index, m)
	return respondState(c, s, err)
}

func (h *Handler) RemoveMedicine(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	s, err := h.ctrl.RemoveMedicine(index)
	return respondState(c, s, err)
}
