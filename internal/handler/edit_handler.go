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

type editService interface {
	BeginEdit(cell models.GradeCell) (models.EditSession, error)
	Commit(ctx context.Context, cell models.GradeCell, raw string) (models.Grade, error)
	Cancel(cell models.GradeCell) error
	EditSession() (models.EditSession, bool)
}

// EditHandler drives the single focused grade cell.
type EditHandler struct {
	edits editService
}

// NewEditHandler constructs handler.
func NewEditHandler(edits editService) *EditHandler {
	return &EditHandler{edits: edits}
}

// Session godoc
// @Summary Show the focused cell
// @Tags Gradebook
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gradebook/edit [get]
func (h *EditHandler) Session(c *gin.Context) {
	session, active := h.edits.EditSession()
	response.JSON(c, http.StatusOK, dto.EditSessionResponse{Active: active, Session: session})
}

// Begin godoc
// @Summary Focus a cell for editing
// @Tags Gradebook
// @Accept json
// @Produce json
// @Param payload body models.GradeCell true "Cell"
// @Success 200 {object} response.Envelope
// @Router /gradebook/edit [post]
func (h *EditHandler) Begin(c *gin.Context) {
	var cell models.GradeCell
	if err := c.ShouldBindJSON(&cell); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.edits.BeginEdit(cell)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Commit godoc
// @Summary Commit the focused cell
// @Tags Gradebook
// @Accept json
// @Produce json
// @Param payload body dto.EditCommitRequest true "Commit payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /gradebook/edit/commit [post]
func (h *EditHandler) Commit(c *gin.Context) {
	var req dto.EditCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.edits.Commit(c.Request.Context(), req.Cell, req.Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Cancel godoc
// @Summary Discard the focused cell's edit
// @Tags Gradebook
// @Accept json
// @Param payload body models.GradeCell true "Cell"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /gradebook/edit/cancel [post]
func (h *EditHandler) Cancel(c *gin.Context) {
	var cell models.GradeCell
	if err := c.ShouldBindJSON(&cell); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.edits.Cancel(cell); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
