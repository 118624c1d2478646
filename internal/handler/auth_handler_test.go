package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathshala-plus/pathshala-api/internal/middleware"
	"github.com/pathshala-plus/pathshala-api/internal/models"
	"github.com/pathshala-plus/pathshala-api/internal/service"
)

type teacherLookupStub struct {
	teachers map[string]models.Teacher
}

func (s *teacherLookupStub) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	for _, t := range s.teachers {
		if t.Email == email {
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *teacherLookupStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := s.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type studentLookupStub struct {
	students map[string]models.Student
}

func (s *studentLookupStub) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	for _, st := range s.students {
		if st.Mobile == mobile {
			return &st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *studentLookupStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return &st, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthHandlerFixture(t *testing.T) (*AuthHandler, *teacherLookupStub, *studentLookupStub) {
	t.Helper()
	teachers := &teacherLookupStub{teachers: map[string]models.Teacher{}}
	students := &studentLookupStub{students: map[string]models.Student{}}
	svc := service.NewAuthService(teachers, students, nil, nil, nil, service.AuthConfig{
		Secret: "test-secret", TokenExpiry: time.Hour,
	})
	return NewAuthHandler(svc), teachers, students
}

func postJSON(t *testing.T, h gin.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	h(c)
	return w
}

func TestAuthHandlerLoginTeacher(t *testing.T) {
	handler, teachers, _ := newAuthHandlerFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("pass123"), bcrypt.MinCost)
	require.NoError(t, err)
	teachers.teachers["t1"] = models.Teacher{
		ID: "t1", Name: "Amit", Email: "amit@school.in", PasswordHash: string(hash), Role: models.RoleTeacher,
	}

	w := postJSON(t, handler.LoginTeacher, "/teacher/login", gin.H{
		"email": "amit@school.in", "password": "pass123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandlerLoginTeacherBadCredentials(t *testing.T) {
	handler, _, _ := newAuthHandlerFixture(t)

	w := postJSON(t, handler.LoginTeacher, "/teacher/login", gin.H{
		"email": "ghost@school.in", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandlerLoginTeacherMalformedBody(t *testing.T) {
	handler, _, _ := newAuthHandlerFixture(t)
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/teacher/login", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler.LoginTeacher(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLoginStudent(t *testing.T) {
	handler, _, students := newAuthHandlerFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	require.NoError(t, err)
	students.students["s1"] = models.Student{
		ID: "s1", Name: "Ravi", Mobile: "9876543210", Class: "5", PasswordHash: string(hash),
	}

	w := postJSON(t, handler.LoginStudent, "/student/login", gin.H{
		"mobile": "9876543210", "password": "123456",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"class":"5"`)
	assert.Contains(t, w.Body.String(), `"token"`)
}

func TestAuthHandlerMe(t *testing.T) {
	handler, _, _ := newAuthHandlerFixture(t)
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/teacher/me", nil)
	c.Request = req
	c.Set(middleware.ContextPrincipalKey, &models.Principal{
		Variant: models.VariantTeacher,
		Teacher: &models.Teacher{ID: "t1", Name: "Amit", Role: models.RoleTeacher},
	})

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Amit")
}

func TestAuthHandlerForgotPasswordUnknownEmail(t *testing.T) {
	handler, _, _ := newAuthHandlerFixture(t)

	w := postJSON(t, handler.ForgotPassword, "/teacher/forgot-password", gin.H{
		"email": "nobody@school.in",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandlerForgotPasswordKnownEmail(t *testing.T) {
	handler, teachers, _ := newAuthHandlerFixture(t)
	teachers.teachers["t1"] = models.Teacher{ID: "t1", Email: "amit@school.in"}

	w := postJSON(t, handler.ForgotPassword, "/teacher/forgot-password", gin.H{
		"email": "amit@school.in",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
