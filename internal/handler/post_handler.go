package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pathshala-plus/pathshala-api/internal/middleware"
	"github.com/pathshala-plus/pathshala-api/internal/service"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
	"github.com/pathshala-plus/pathshala-api/pkg/response"
)

// PostHandler exposes notice, homework and material endpoints.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler constructs PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// Create godoc
// @Summary Publish a post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreatePostRequest true "Post fields"
// @Success 201 {object} response.Envelope
// @Router /teacher/posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	post, err := h.posts.Create(c.Request.Context(), principal.ID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// List godoc
// @Summary List posts visible to the caller
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/posts [get]
func (h *PostHandler) List(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil || principal.Teacher == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	posts, err := h.posts.ListForTeacher(c.Request.Context(), principal.Teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts)
}

// Delete godoc
// @Summary Delete a post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /teacher/posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil || principal.Teacher == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	if err := h.posts.Delete(c.Request.Context(), principal.Teacher, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Feed godoc
// @Summary Class feed for the logged-in student
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/feed [get]
func (h *PostHandler) Feed(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil || principal.Student == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	posts, err := h.posts.Feed(c.Request.Context(), principal.Student.Class)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts)
}
