package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rafaelminatto1/dudufisio-api/internal/platform/auth"
	"github.com/rafaelminatto1/dudufisio-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "therapist", "receptionist"))
	readGroup.GET("/appointments", h.ListAppointments)
	readGroup.GET("/appointments/:id", h.GetAppointment)
	readGroup.GET("/waiting-list", h.ListWaitingList)
	readGroup.GET("/waiting-list/:id", h.GetWaitingListEntry)

	writeGroup := api.Group("", auth.RequireRole("admin", "therapist", "receptionist"))
	writeGroup.POST("/appointments", h.CreateAppointment)
	writeGroup.POST("/appointments/:id/cancel", h.CancelAppointment)
	writeGroup.POST("/appointments/:id/slots", h.FindSlots)
	writeGroup.POST("/appointments/:id/reschedule", h.Reschedule)
	writeGroup.POST("/appointments/:id/move", h.Move)
	writeGroup.POST("/waiting-list", h.CreateWaitingListEntry)
	writeGroup.PATCH("/waiting-list/:id", h.UpdateWaitingListEntry)
	writeGroup.DELETE("/waiting-list/:id", h.DeleteWaitingListEntry)
}

func callerScope(c echo.Context) (orgID, actorID string) {
	ctx := c.Request().Context()
	return auth.OrgIDFromContext(ctx), auth.UserIDFromContext(ctx)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func parseDates(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid date "+s+": want YYYY-MM-DD")
		}
		out = append(out, d)
	}
	return out, nil
}

// -- Appointments --

type createAppointmentRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	PractitionerID  uuid.UUID `json:"practitioner_id"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Type            string    `json:"type"`
	Notes           string    `json:"notes"`
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date: want YYYY-MM-DD")
	}
	orgID, actorID := callerScope(c)

	appt := &Appointment{
		OrgID:           orgID,
		PatientID:       req.PatientID,
		PractitionerID:  req.PractitionerID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Notes:           req.Notes,
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), actorID, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusConflict, "slot occupied")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	orgID, _ := callerScope(c)
	appt, err := h.svc.GetAppointment(c.Request().Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	orgID, _ := callerScope(c)

	var filter AppointmentFilter
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = id
	}
	if raw := c.QueryParam("practitioner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid practitioner_id")
		}
		filter.PractitionerID = id
	}
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date: want YYYY-MM-DD")
		}
		filter.Date = &d
	}
	filter.Status = c.QueryParam("status")

	items, total, err := h.svc.ListAppointments(c.Request().Context(), orgID, filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	orgID, actorID := callerScope(c)
	if err := h.svc.CancelAppointment(c.Request().Context(), orgID, id, req.Reason, actorID); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Slot search --

type findSlotsRequest struct {
	PreferredDates   []string `json:"preferred_dates"`
	PreferredTimes   []string `json:"preferred_times"`
	SamePractitioner *bool    `json:"same_practitioner"`
}

func (h *Handler) FindSlots(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req findSlotsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.PreferredDates) == 0 || len(req.PreferredTimes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "preferred_dates and preferred_times are required")
	}
	dates, err := parseDates(req.PreferredDates)
	if err != nil {
		return err
	}
	same := req.SamePractitioner == nil || *req.SamePractitioner

	orgID, _ := callerScope(c)
	slots, err := h.svc.FindSlots(c.Request().Context(), orgID, id, dates, req.PreferredTimes, same)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"slots": slots})
}

// -- Reschedule --

type rescheduleRequest struct {
	PreferredDates   []string `json:"preferred_dates"`
	PreferredTimes   []string `json:"preferred_times"`
	MaxWaitDays      int      `json:"max_wait_days"`
	SamePractitioner *bool    `json:"same_practitioner"`
	Reason           string   `json:"reason"`
	NotifyPatient    *bool    `json:"notify_patient"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dates, err := parseDates(req.PreferredDates)
	if err != nil {
		return err
	}
	orgID, actorID := callerScope(c)

	result, err := h.svc.Reschedule(c.Request().Context(), orgID, actorID, id, &RescheduleRequest{
		PreferredDates:   dates,
		PreferredTimes:   req.PreferredTimes,
		MaxWaitDays:      req.MaxWaitDays,
		SamePractitioner: req.SamePractitioner,
		Reason:           req.Reason,
		NotifyPatient:    req.NotifyPatient,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		case errors.Is(err, ErrSlotTaken):
			return echo.NewHTTPError(http.StatusConflict, "slot occupied")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, result)
}

// -- Calendar move --

type moveRequest struct {
	NewDate string `json:"new_date"`
	NewTime string `json:"new_time"`
}

type moveResponse struct {
	Accepted    bool         `json:"accepted"`
	Error       string       `json:"error,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

func (h *Handler) Move(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.NewDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid new_date: want YYYY-MM-DD")
	}
	orgID, actorID := callerScope(c)

	appt, err := h.svc.Move(c.Request().Context(), orgID, actorID, id, date, req.NewTime)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		case errors.Is(err, ErrSlotTaken):
			return c.JSON(http.StatusOK, moveResponse{Accepted: false, Error: "slot occupied"})
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, moveResponse{Accepted: true, Appointment: appt})
}

// -- Waiting list --

type createWaitingRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	PractitionerID  uuid.UUID `json:"practitioner_id"`
	AppointmentType string    `json:"appointment_type"`
	PreferredDate   string    `json:"preferred_date"`
	PreferredTime   *string   `json:"preferred_time"`
	Notes           string    `json:"notes"`
	Priority        string    `json:"priority"`
}

func (h *Handler) CreateWaitingListEntry(c echo.Context) error {
	var req createWaitingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	orgID, actorID := callerScope(c)

	entry := &WaitingListEntry{
		OrgID:           orgID,
		PatientID:       req.PatientID,
		PractitionerID:  req.PractitionerID,
		AppointmentType: req.AppointmentType,
		PreferredTime:   req.PreferredTime,
		Notes:           req.Notes,
		Priority:        req.Priority,
	}
	if req.PreferredDate != "" {
		d, err := time.Parse("2006-01-02", req.PreferredDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid preferred_date: want YYYY-MM-DD")
		}
		entry.PreferredDate = &d
	}
	if err := h.svc.CreateWaitingListEntry(c.Request().Context(), actorID, entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetWaitingListEntry(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	orgID, _ := callerScope(c)
	entry, err := h.svc.GetWaitingListEntry(c.Request().Context(), orgID, id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "waiting list entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListWaitingList(c echo.Context) error {
	pg := pagination.FromContext(c)
	orgID, _ := callerScope(c)
	items, total, err := h.svc.ListWaitingList(c.Request().Context(), orgID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateWaitingRequest struct {
	Status        *string `json:"status"`
	Notes         *string `json:"notes"`
	Priority      *string `json:"priority"`
	PreferredDate *string `json:"preferred_date"`
	PreferredTime *string `json:"preferred_time"`
}

func (h *Handler) UpdateWaitingListEntry(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateWaitingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patch := &WaitingListPatch{
		Status:        req.Status,
		Notes:         req.Notes,
		Priority:      req.Priority,
		PreferredTime: req.PreferredTime,
	}
	if req.PreferredDate != nil {
		d, err := time.Parse("2006-01-02", *req.PreferredDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid preferred_date: want YYYY-MM-DD")
		}
		patch.PreferredDate = &d
	}
	orgID, actorID := callerScope(c)

	entry, err := h.svc.UpdateWaitingListEntry(c.Request().Context(), orgID, actorID, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "waiting list entry not found")
		case errors.Is(err, ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid status transition")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) DeleteWaitingListEntry(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	orgID, actorID := callerScope(c)
	if err := h.svc.DeleteWaitingListEntry(c.Request().Context(), orgID, actorID, id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "waiting list entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
