package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

type rubricService interface {
	Selections(studentID, assignmentID string) models.RubricSelection
	SaveSelections(ctx context.Context, studentID, assignmentID string, selections models.RubricSelection) (*models.RubricScore, error)
	Score(ctx context.Context, studentID, assignmentID string) (*models.RubricScore, error)
}

// RubricHandler exposes rubric selection endpoints.
type RubricHandler struct {
	rubrics rubricService
}

// NewRubricHandler constructs handler.
func NewRubricHandler(rubrics rubricService) *RubricHandler {
	return &RubricHandler{rubrics: rubrics}
}

// Selections godoc
// @Summary Stored rubric selections for a student
// @Tags Rubrics
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /rubric-selections/{studentId}/{assignmentId} [get]
func (h *RubricHandler) Selections(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.rubrics.Selections(c.Param("studentId"), c.Param("assignmentId")))
}

// SaveSelections godoc
// @Summary Save rubric selections and return the resulting score
// @Tags Rubrics
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.SelectionsRequest true "Selections payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /rubric-selections/{studentId}/{assignmentId} [put]
func (h *RubricHandler) SaveSelections(c *gin.Context) {
	var req dto.SelectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	score, err := h.rubrics.SaveSelections(c.Request.Context(), c.Param("studentId"), c.Param("assignmentId"), req.Selections)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score)
}

// Score godoc
// @Summary Rubric score from stored selections
// @Tags Rubrics
// @Produce json
// @Param studentId path string true "Student ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /rubric-selections/{studentId}/{assignmentId}/score [get]
func (h *RubricHandler) Score(c *gin.Context) {
	score, err := h.rubrics.Score(c.Request.Context(), c.Param("studentId"), c.Param("assignmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score)
}
