package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pathshala-plus/pathshala-api/internal/middleware"
	"github.com/pathshala-plus/pathshala-api/internal/service"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
	"github.com/pathshala-plus/pathshala-api/pkg/response"
)

// SubmissionHandler exposes homework submission endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Submit godoc
// @Summary Submit homework
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitRequest true "Submission fields"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil || principal.Student == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	submission, err := h.submissions.Submit(c.Request.Context(), principal.ID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// ListByPost godoc
// @Summary List submissions for a post
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/posts/{id}/submissions [get]
func (h *SubmissionHandler) ListByPost(c *gin.Context) {
	submissions, err := h.submissions.ListByPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions)
}
