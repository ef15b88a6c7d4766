package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/pkg/export"
	"github.com/noah-isme/lingo-schedule-api/pkg/response"
)

type scheduleSessionService interface {
	Start(ctx context.Context, req dto.StartScheduleSessionRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error)
	Get(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error)
	SelectTeacher(ctx context.Context, id string, req dto.SelectTeacherRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error)
	Pointer(ctx context.Context, id string, req dto.PointerEventRequest, actorID string, role models.UserRole) (*dto.PointerEventResponse, error)
	Decide(ctx context.Context, id string, req dto.DecisionRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error)
	SetRecurrence(ctx context.Context, id string, req dto.RecurrenceRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error)
	NavigateWeek(ctx context.Context, id string, req dto.NavigateWeekRequest, actorID string, role models.UserRole) (*dto.NavigateWeekResponse, error)
	Confirm(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ScheduleConfirmation, error)
	Export(ctx context.Context, id, format, actorID string, role models.UserRole) (*export.File, error)
	Close(ctx context.Context, id, actorID string, role models.UserRole) error
}

// ScheduleSessionHandler exposes the schedule selector over /schedule-sessions.
type ScheduleSessionHandler struct {
	service scheduleSessionService
}

// NewScheduleSessionHandler constructs the handler.
func NewScheduleSessionHandler(service scheduleSessionService) *ScheduleSessionHandler {
	return &ScheduleSessionHandler{service: service}
}

// Start godoc
// @Summary Open a schedule selector session
// @Description Availability is loaded in the background; poll the session or subscribe to its channel until loadState is ready.
// @Tags Schedule Sessions
// @Accept json
// @Produce json
// @Param payload body dto.StartScheduleSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule-sessions [post]
func (h *ScheduleSessionHandler) Start(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.StartScheduleSessionRequest
	if !bindJSON(c, &req, "invalid schedule session payload") {
		return
	}
	view, err := h.service.Start(c.Request.Context(), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, view, nil)
}

// Get godoc
// @Summary Get a schedule selector session
// @Tags Schedule Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule-sessions/{id} [get]
func (h *ScheduleSessionHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SelectTeacher godoc
// @Summary Select the teacher whose availability drives the grid
// @Tags Schedule Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectTeacherRequest true "Teacher"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedule-sessions/{id}/teacher [put]
func (h *ScheduleSessionHandler) SelectTeacher(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.SelectTeacherRequest
	if !bindJSON(c, &req, "invalid teacher selection payload") {
		return
	}
	view, err := h.service.SelectTeacher(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Pointer godoc
// @Summary Send a grid pointer event
// @Tags Schedule Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.PointerEventRequest true "Pointer event"
// @Success 200 {object} response.Envelope
// @Router /schedule-sessions/{id}/pointer [post]
func (h *ScheduleSessionHandler) Pointer(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.PointerEventRequest
	if !bindJSON(c, &req, "invalid pointer event payload") {
		return
	}
	resp, err := h.service.Pointer(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Decide godoc
// @Summary Resolve a pending multi-cell selection
// @Tags Schedule Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule-sessions/{id}/decision [post]
func (h *ScheduleSessionHandler) Decide(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	view, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SetRecurrence godoc
// @Summary Toggle recurring expansion
// @Tags Schedule Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.RecurrenceRequest true "Recurrence"
// @Success 200 {object} response.Envelope
// @Router /schedule-sessions/{id}/recurrence [put]
func (h *ScheduleSessionHandler) SetRecurrence(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RecurrenceRequest
	if !bindJSON(c, &req, "invalid recurrence payload") {
		return
	}
	view, err := h.service.SetRecurrence(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// NavigateWeek godoc
// @Summary Move the viewed week in single-week mode
// @Tags Schedule Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.NavigateWeekRequest true "Week offset"
// @Success 200 {object} response.Envelope
// @Router /schedule-sessions/{id}/week [post]
func (h *ScheduleSessionHandler) NavigateWeek(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.NavigateWeekRequest
	if !bindJSON(c, &req, "invalid week navigation payload") {
		return
	}
	resp, err := h.service.NavigateWeek(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Confirm godoc
// @Summary Confirm the selection without persisting it
// @Tags Schedule Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule-sessions/{id}/confirm [post]
func (h *ScheduleSessionHandler) Confirm(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	conf, err := h.service.Confirm(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conf, nil)
}

// Export godoc
// @Summary Download the session's class instances
// @Tags Schedule Sessions
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /schedule-sessions/{id}/export [get]
func (h *ScheduleSessionHandler) Export(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Close godoc
// @Summary Discard a schedule selector session
// @Tags Schedule Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /schedule-sessions/{id} [delete]
func (h *ScheduleSessionHandler) Close(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Close(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
