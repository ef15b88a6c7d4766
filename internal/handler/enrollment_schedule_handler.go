package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
	"github.com/noah-isme/lingo-schedule-api/pkg/response"
)

type enrollmentScheduleService interface {
	CreateWithSchedule(ctx context.Context, req dto.CreateEnrollmentScheduleRequest, actorID string, role models.UserRole) (*dto.EnrollmentScheduleView, error)
	UpdateWithSchedule(ctx context.Context, enrollmentID string, req dto.UpdateEnrollmentScheduleRequest, actorID string, role models.UserRole) (*dto.EnrollmentScheduleView, error)
	Get(ctx context.Context, enrollmentID string, query dto.EnrollmentScheduleQuery, actorID string, role models.UserRole) (*dto.EnrollmentScheduleView, error)
}

// EnrollmentScheduleHandler persists confirmed sessions as enrollments.
type EnrollmentScheduleHandler struct {
	service enrollmentScheduleService
}

// NewEnrollmentScheduleHandler constructs the handler.
func NewEnrollmentScheduleHandler(service enrollmentScheduleService) *EnrollmentScheduleHandler {
	return &EnrollmentScheduleHandler{service: service}
}

// Create godoc
// @Summary Enroll with a confirmed schedule
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.CreateEnrollmentScheduleRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentScheduleHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateEnrollmentScheduleRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	view, err := h.service.CreateWithSchedule(c.Request.Context(), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get an enrollment with its upcoming classes
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param timezone query string false "IANA zone deciding which classes are upcoming"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/schedule [get]
func (h *EnrollmentScheduleHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.EnrollmentScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query"))
		return
	}
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), query, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Update godoc
// @Summary Replace an enrollment's upcoming schedule
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.UpdateEnrollmentScheduleRequest true "Edit session"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/schedule [put]
func (h *EnrollmentScheduleHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateEnrollmentScheduleRequest
	if !bindJSON(c, &req, "invalid schedule update payload") {
		return
	}
	view, err := h.service.UpdateWithSchedule(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
