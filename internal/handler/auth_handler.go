package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pathshala-plus/pathshala-api/internal/middleware"
	"github.com/pathshala-plus/pathshala-api/internal/models"
	"github.com/pathshala-plus/pathshala-api/internal/service"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
	"github.com/pathshala-plus/pathshala-api/pkg/response"
)

// AuthHandler exposes login and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginTeacher godoc
// @Summary Teacher login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.TeacherLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /teacher/login [post]
func (h *AuthHandler) LoginTeacher(c *gin.Context) {
	var req models.TeacherLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.auth.LoginTeacher(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// LoginStudent godoc
// @Summary Student login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.StudentLoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/login [post]
func (h *AuthHandler) LoginStudent(c *gin.Context) {
	var req models.StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.auth.LoginStudent(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Me godoc
// @Summary Current teacher profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil || principal.Teacher == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}
	response.JSON(c, http.StatusOK, principal.Teacher)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword godoc
// @Summary Request a password reset mail
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body forgotPasswordRequest true "Account email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "password reset mail sent"})
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
