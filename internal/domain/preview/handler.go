package preview

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/session"
)

// Handler serves preview projections and the cached doctor header block.
type Handler struct {
	prescriptions *prescription.Service
	cache         *DoctorInfoCache
	sess          session.Context
}

func NewHandler(prescriptions *prescription.Service, cache *DoctorInfoCache, sess session.Context) *Handler {
	return &Handler{prescriptions: prescriptions, cache: cache, sess: sess}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prescriptions/:id/preview", h.Preview)
	api.GET("/prescriptions/:id/print", h.Print)
	api.GET("/doctor-info", h.GetDoctorInfo)
	api.PUT("/doctor-info", h.PutDoctorInfo)
}

func (h *Handler) buildDocument(c echo.Context) (*Document, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	p, err := h.prescriptions.Get(c.Request().Context(), id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load prescription")
	}
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	cached, err := h.cache.Load()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load doctor info")
	}
	return Build(p, cached, h.sess), nil
}

func (h *Handler) Preview(c echo.Context) error {
	doc, err := h.buildDocument(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) Print(c echo.Context) error {
	doc, err := h.buildDocument(c)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, doc.RenderText())
}

// GetDoctorInfo returns the effective header block, the cache merged over the
// session defaults.
func (h *Handler) GetDoctorInfo(c echo.Context) error {
	cached, err := h.cache.Load()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load doctor info")
	}
	return c.JSON(http.StatusOK, MergeDoctorInfo(nil, cached, h.sess))
}

func (h *Handler) PutDoctorInfo(c echo.Context) error {
	var info prescription.DoctorInfo
	if err := c.Bind(&info); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.cache.Save(&info); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save doctor info")
	}
	return c.JSON(http.StatusOK, info)
}
