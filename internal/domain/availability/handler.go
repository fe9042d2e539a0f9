package availability

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ime/scheduler/internal/platform/auth"
)

// Resolver is the operation the HTTP handler exposes.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (*Result, error)
}

type Handler struct {
	svc Resolver
}

func NewHandler(svc Resolver) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("scheduler", "case_manager"))
	read.POST("/availability/resolve", h.Resolve)
	read.GET("/examinations/:id/availability", h.GetExaminationAvailability)
}

// resolveBody is the wire form of Request. Dates arrive as strings so that an
// empty start_date means "today".
type resolveBody struct {
	ExaminationID    string   `json:"examination_id"`
	ClaimantID       string   `json:"claimant_id"`
	StartDate        string   `json:"start_date"`
	ExcludeBookingID string   `json:"exclude_booking_id"`
	Settings         Settings `json:"settings"`
}

func (b resolveBody) toRequest() (Request, error) {
	req := Request{
		ExaminationID:    b.ExaminationID,
		ClaimantID:       b.ClaimantID,
		ExcludeBookingID: b.ExcludeBookingID,
		Settings:         b.Settings,
	}
	if b.StartDate != "" {
		d, err := ParseDate(b.StartDate)
		if err != nil {
			return Request{}, err
		}
		req.StartDate = d
	}
	return req, nil
}

func (h *Handler) Resolve(c echo.Context) error {
	var body resolveBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := body.toRequest()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.resolve(c, req)
}

func (h *Handler) GetExaminationAvailability(c echo.Context) error {
	body := resolveBody{
		ExaminationID:    c.Param("id"),
		ClaimantID:       c.QueryParam("claimant_id"),
		StartDate:        c.QueryParam("start_date"),
		ExcludeBookingID: c.QueryParam("exclude_booking_id"),
		Settings: Settings{
			StartOfWorkingUTC: c.QueryParam("start_of_working_utc"),
		},
	}
	for name, dst := range map[string]*int{
		"window_days":           &body.Settings.WindowDays,
		"working_hours_per_day": &body.Settings.WorkingHoursPerDay,
		"slot_duration_minutes": &body.Settings.SlotDurationMinutes,
	} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+": "+v)
		}
		*dst = n
	}

	req, err := body.toRequest()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.resolve(c, req)
}

func (h *Handler) resolve(c echo.Context, req Request) error {
	res, err := h.svc.Resolve(c.Request().Context(), req)
	if err != nil {
		return resolutionHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// resolutionHTTPError maps resolution failures to HTTP errors whose body
// carries the failure kind.
func resolutionHTTPError(err error) error {
	var re *ResolutionError
	if !errors.As(err, &re) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	status := http.StatusUnprocessableEntity
	switch re.Kind {
	case KindInvalidRequest:
		status = http.StatusBadRequest
	case KindExaminationNotFound:
		status = http.StatusNotFound
	}
	return echo.NewHTTPError(status, map[string]string{
		"kind":    string(re.Kind),
		"message": re.Error(),
	})
}
