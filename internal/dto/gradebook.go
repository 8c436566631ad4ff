package dto

import "github.com/noah-isme/sma-gradebook/internal/models"

// ScoreRequest captures PUT /grades/:studentId/:assignmentId payload. Score is
// the raw percentage input as typed into the cell.
type ScoreRequest struct {
	Score   string `json:"score"`
	ClassID string `json:"class_id"`
}

// PointsRequest captures PUT /grades/:studentId/:assignmentId/points payload.
type PointsRequest struct {
	Points  *float64 `json:"points"`
	ClassID string   `json:"class_id"`
}

// CommentRequest captures PUT /grades/:studentId/:assignmentId/comment payload.
type CommentRequest struct {
	Comment string `json:"comment"`
	ClassID string `json:"class_id"`
}

// StatusRequest captures PUT /grades/:studentId/:assignmentId/status payload.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// EditCommitRequest captures POST /gradebook/edit/commit payload.
type EditCommitRequest struct {
	Cell  models.GradeCell `json:"cell"`
	Input string           `json:"input"`
}

// SelectionsRequest captures PUT /rubric-selections/:studentId/:assignmentId payload.
type SelectionsRequest struct {
	Selections models.RubricSelection `json:"selections" binding:"required"`
}

// EditSessionResponse reports the focused cell, if any.
type EditSessionResponse struct {
	Active  bool               `json:"active"`
	Session models.EditSession `json:"session"`
}
