package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/middleware"
	"github.com/noah-isme/lingo-schedule-api/pkg/response"
)

type courseTeacherService interface {
	ListViews(ctx context.Context, courseID string) ([]dto.TeacherAvailabilityView, bool, error)
	Invalidate(ctx context.Context, courseID string) error
}

// CourseTeacherHandler lists the teachers of a course with their availability.
type CourseTeacherHandler struct {
	service courseTeacherService
}

// NewCourseTeacherHandler constructs the handler.
func NewCourseTeacherHandler(service courseTeacherService) *CourseTeacherHandler {
	return &CourseTeacherHandler{service: service}
}

// List godoc
// @Summary List course teachers with weekly availability
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /courses/{id}/teachers [get]
func (h *CourseTeacherHandler) List(c *gin.Context) {
	teachers, hit, err := h.service.ListViews(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, teachers, middleware.ExtractMeta(c))
}

// InvalidateCache godoc
// @Summary Drop cached availability for a course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id}/teachers/cache [delete]
func (h *CourseTeacherHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.Invalidate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
