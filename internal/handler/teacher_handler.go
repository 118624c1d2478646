package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pathshala-plus/pathshala-api/internal/middleware"
	"github.com/pathshala-plus/pathshala-api/internal/service"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
	"github.com/pathshala-plus/pathshala-api/pkg/response"
)

// TeacherHandler exposes teacher profile and account management endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Router /teacher/profile [put]
func (h *TeacherHandler) UpdateProfile(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	teacher, err := h.teachers.UpdateProfile(c.Request.Context(), principal.ID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// List godoc
// @Summary List teacher accounts
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers)
}

// Create godoc
// @Summary Create a teacher account
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTeacherRequest true "Account fields"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	teacher, err := h.teachers.Create(c.Request.Context(), principal.ID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Delete godoc
// @Summary Delete a teacher account
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teacher/teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	if err := h.teachers.Delete(c.Request.Context(), principal.ID(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
