package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

type gradingService interface {
	Get(studentID, assignmentID string) (models.Grade, bool)
	List(filter models.GradeFilter) []models.Grade
	CommitScore(ctx context.Context, cell models.GradeCell, raw string) (models.Grade, error)
	RecordPoints(ctx context.Context, cell models.GradeCell, req service.RecordPointsRequest) (models.Grade, error)
	SetComment(ctx context.Context, cell models.GradeCell, comment string) (models.Grade, error)
	SetStatus(ctx context.Context, studentID, assignmentID, status string) (models.Grade, error)
	Remove(ctx context.Context, studentID, assignmentID string) error
	GradeAll(ctx context.Context, req service.BulkGradeRequest) (*models.BulkGradeResult, error)
	GradeAllFromRubric(ctx context.Context, req service.RubricBulkGradeRequest) (*models.BulkGradeResult, error)
	StudentSummary(ctx context.Context, studentID string) models.StudentGradeSummary
}

// GradeHandler exposes grade matrix endpoints.
type GradeHandler struct {
	grades gradingService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradingService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param assignmentId query string false "Filter by assignment"
// @Param status query string false "Filter by status (GRADED, MISSING, INCOMPLETE, EXCUSED)"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{StudentID: c.Query("studentId"), AssignmentID: c.Query("assignmentId")}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseGradeStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown grade status"))
			return
		}
		filter.Status = status
	}
	grades := h.grades.List(filter)
	response.JSON(c, http.StatusOK, grades, map[string]interface{}{"total": len(grades)})
}

// Get godoc
// @Summary Get a single grade
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{studentId}/{assignmentId} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	grade, ok := h.grades.Get(c.Param("studentId"), c.Param("assignmentId"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "grade not found"))
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Commit godoc
// @Summary Record a percentage score
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.ScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{studentId}/{assignmentId} [put]
func (h *GradeHandler) Commit(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.CommitScore(c.Request.Context(), cellFromPath(c, req.ClassID), req.Score)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// RecordPoints godoc
// @Summary Record an absolute points score
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.PointsRequest true "Points payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{studentId}/{assignmentId}/points [put]
func (h *GradeHandler) RecordPoints(c *gin.Context) {
	var req dto.PointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.RecordPoints(c.Request.Context(), cellFromPath(c, req.ClassID), service.RecordPointsRequest{Points: req.Points})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// SetComment godoc
// @Summary Set the comment on a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.CommentRequest true "Comment payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{studentId}/{assignmentId}/comment [put]
func (h *GradeHandler) SetComment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.SetComment(c.Request.Context(), cellFromPath(c, req.ClassID), req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// SetStatus godoc
// @Summary Change the status of a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.StatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{studentId}/{assignmentId}/status [put]
func (h *GradeHandler) SetStatus(c *gin.Context) {
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.SetStatus(c.Request.Context(), c.Param("studentId"), c.Param("assignmentId"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Delete godoc
// @Summary Remove a grade
// @Tags Grades
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Router /grades/{studentId}/{assignmentId} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.grades.Remove(c.Request.Context(), c.Param("studentId"), c.Param("assignmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Bulk godoc
// @Summary Grade every ungraded student with one score
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.BulkGradeRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /grades/bulk [post]
func (h *GradeHandler) Bulk(c *gin.Context) {
	var req service.BulkGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.GradeAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// BulkRubric godoc
// @Summary Grade every ungraded student from rubric selections
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RubricBulkGradeRequest true "Rubric bulk payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /grades/bulk/rubric [post]
func (h *GradeHandler) BulkRubric(c *gin.Context) {
	var req service.RubricBulkGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.GradeAllFromRubric(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// StudentSummary godoc
// @Summary Student average and status counts
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/summary [get]
func (h *GradeHandler) StudentSummary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.grades.StudentSummary(c.Request.Context(), c.Param("studentId")))
}

func cellFromPath(c *gin.Context, classID string) models.GradeCell {
	return models.GradeCell{StudentID: c.Param("studentId"), AssignmentID: c.Param("assignmentId"), ClassID: classID}
}
