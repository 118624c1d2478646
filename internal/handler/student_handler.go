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

// StudentHandler exposes student record endpoints for teachers.
type StudentHandler struct {
	students *service.StudentService
	exports  *service.ExportService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, exports *service.ExportService) *StudentHandler {
	return &StudentHandler{students: students, exports: exports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param class query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /teacher/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{Class: c.Query("class")}

	students, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create godoc
// @Summary Admit a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.StudentRequest true "Admission fields"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	student, err := h.students.Create(c.Request.Context(), principal.ID(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update a student record
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Admission fields"
// @Success 200 {object} response.Envelope
// @Router /teacher/students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete a student record
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Router /teacher/students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrNoToken)
		return
	}

	if err := h.students.Delete(c.Request.Context(), principal.ID(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the admission register
// @Tags Students
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param class query string false "Filter by class"
// @Success 200 {file} file
// @Router /teacher/students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	filter := models.StudentFilter{Class: c.Query("class")}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))

	result, err := h.exports.AdmissionRegister(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
