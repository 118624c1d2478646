package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

type mockTeacherCreds struct {
	byEmail map[string]models.Teacher
	byID    map[string]models.Teacher
}

func (m *mockTeacherCreds) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	if t, ok := m.byEmail[email]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherCreds) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.byID[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentCreds struct {
	byMobile map[string]models.Student
	byID     map[string]models.Student
}

func (m *mockStudentCreds) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	if s, ok := m.byMobile[mobile]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentCreds) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.byID[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAudit struct {
	logs []models.AuditLog
}

func (m *mockAudit) Create(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(secret string, expiry time.Duration) (*AuthService, *mockTeacherCreds, *mockStudentCreds, *mockAudit) {
	teachers := &mockTeacherCreds{byEmail: map[string]models.Teacher{}, byID: map[string]models.Teacher{}}
	students := &mockStudentCreds{byMobile: map[string]models.Student{}, byID: map[string]models.Student{}}
	audit := &mockAudit{}
	svc := NewAuthService(teachers, students, audit, nil, nil, AuthConfig{Secret: secret, TokenExpiry: expiry, Issuer: "pathshala"})
	return svc, teachers, students, audit
}

func TestLoginTeacherSuccess(t *testing.T) {
	svc, teachers, _, audit := newAuthFixture("secret", time.Hour)
	teachers.byEmail["amit@school.in"] = models.Teacher{
		ID: "t1", Name: "Amit", Email: "amit@school.in",
		PasswordHash: hashPassword(t, "pass123"), Role: models.RoleTeacher,
	}

	resp, err := svc.LoginTeacher(context.Background(), models.TeacherLoginRequest{
		Email: "amit@school.in", Password: "pass123",
	}, RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.ID)
	assert.NotEmpty(t, resp.Token)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
}

func TestLoginTeacherWrongPassword(t *testing.T) {
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byEmail["amit@school.in"] = models.Teacher{
		ID: "t1", Email: "amit@school.in", PasswordHash: hashPassword(t, "pass123"),
	}

	_, err := svc.LoginTeacher(context.Background(), models.TeacherLoginRequest{
		Email: "amit@school.in", Password: "wrong",
	}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginTeacherUnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture("secret", time.Hour)

	_, err := svc.LoginTeacher(context.Background(), models.TeacherLoginRequest{
		Email: "nobody@school.in", Password: "pass123",
	}, RequestMeta{})
	require.Error(t, err)
	// Unknown account and wrong password answer identically.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginStudentSuccess(t *testing.T) {
	svc, _, students, _ := newAuthFixture("secret", time.Hour)
	students.byMobile["9876543210"] = models.Student{
		ID: "s1", Name: "Ravi", Class: "5", SrNo: "101",
		PasswordHash: hashPassword(t, "123456"),
	}

	resp, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{
		Mobile: "9876543210", Password: "123456",
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.ID)
	assert.Equal(t, "5", resp.Class)
	assert.NotEmpty(t, resp.Token)
}

func TestResolveRoundTrip(t *testing.T) {
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byID["t1"] = models.Teacher{
		ID: "t1", Name: "Amit", Email: "amit@school.in",
		PasswordHash: "$2a$10$hash", Role: models.RoleAdmin,
	}

	token, err := svc.IssueToken("t1")
	require.NoError(t, err)

	principal, err := svc.Resolve(context.Background(), "Bearer "+token, models.VariantTeacher)
	require.NoError(t, err)
	require.NotNil(t, principal.Teacher)
	assert.Equal(t, "t1", principal.ID())
	assert.Equal(t, models.RoleAdmin, principal.Role())
	assert.Empty(t, principal.Teacher.PasswordHash)
}

func TestResolveMissingHeader(t *testing.T) {
	svc, _, _, _ := newAuthFixture("secret", time.Hour)

	for _, header := range []string{"", "token-without-scheme", "Basic dXNlcjpwYXNz"} {
		_, err := svc.Resolve(context.Background(), header, models.VariantTeacher)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNoToken.Code, appErrors.FromError(err).Code)
	}
}

func TestResolveBadSignature(t *testing.T) {
	issuer, _, _, _ := newAuthFixture("other-secret", time.Hour)
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byID["t1"] = models.Teacher{ID: "t1"}

	token, err := issuer.IssueToken("t1")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "Bearer "+token, models.VariantTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestResolveExpiredToken(t *testing.T) {
	// A negative expiry makes IssueToken mint already-expired tokens.
	svc, teachers, _, _ := newAuthFixture("secret", -time.Minute)
	teachers.byID["t1"] = models.Teacher{ID: "t1"}

	token, err := svc.IssueToken("t1")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "Bearer "+token, models.VariantTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestResolveDeletedPrincipal(t *testing.T) {
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byID["t1"] = models.Teacher{ID: "t1"}

	token, err := svc.IssueToken("t1")
	require.NoError(t, err)

	// Account removed after the token was issued.
	delete(teachers.byID, "t1")

	_, err = svc.Resolve(context.Background(), "Bearer "+token, models.VariantTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrincipalNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveCrossVariant(t *testing.T) {
	// A teacher token used against student routes must not resolve, even when
	// a teacher with that id exists.
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byID["t1"] = models.Teacher{ID: "t1"}

	token, err := svc.IssueToken("t1")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "Bearer "+token, models.VariantStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPrincipalNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthorize(t *testing.T) {
	svc, _, _, _ := newAuthFixture("secret", time.Hour)

	admin := &models.Principal{Variant: models.VariantTeacher, Teacher: &models.Teacher{ID: "t1", Role: models.RoleAdmin}}
	teacher := &models.Principal{Variant: models.VariantTeacher, Teacher: &models.Teacher{ID: "t2", Role: models.RoleTeacher}}
	student := &models.Principal{Variant: models.VariantStudent, Student: &models.Student{ID: "s1"}}

	assert.NoError(t, svc.Authorize(admin, models.RoleAdmin))
	assert.ErrorIs(t, svc.Authorize(teacher, models.RoleAdmin), appErrors.ErrAdminRequired)
	assert.ErrorIs(t, svc.Authorize(student, models.RoleAdmin), appErrors.ErrAdminRequired)
	assert.ErrorIs(t, svc.Authorize(nil, models.RoleAdmin), appErrors.ErrAdminRequired)
}

func TestAuthRejectionsAreAll401(t *testing.T) {
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byID["t1"] = models.Teacher{ID: "t1", Role: models.RoleTeacher}
	token, err := svc.IssueToken("ghost")
	require.NoError(t, err)

	cases := []error{
		func() error { _, e := svc.Resolve(context.Background(), "", models.VariantTeacher); return e }(),
		func() error { _, e := svc.Resolve(context.Background(), "Bearer bogus", models.VariantTeacher); return e }(),
		func() error { _, e := svc.Resolve(context.Background(), "Bearer "+token, models.VariantTeacher); return e }(),
		svc.Authorize(&models.Principal{Teacher: &models.Teacher{Role: models.RoleTeacher}}, models.RoleAdmin),
	}
	for _, err := range cases {
		require.Error(t, err)
		assert.Equal(t, 401, appErrors.FromError(err).Status)
	}
}

func TestForgotPassword(t *testing.T) {
	svc, teachers, _, _ := newAuthFixture("secret", time.Hour)
	teachers.byEmail["amit@school.in"] = models.Teacher{ID: "t1", Email: "amit@school.in"}

	require.NoError(t, svc.ForgotPassword(context.Background(), "amit@school.in"))

	err := svc.ForgotPassword(context.Background(), "nobody@school.in")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVerifyTokenRejectsUnsignedAlg(t *testing.T) {
	svc, _, _, _ := newAuthFixture("secret", time.Hour)

	// alg=none token with a matching id claim.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJpZCI6InQxIn0."
	_, err := svc.Resolve(context.Background(), "Bearer "+unsigned, models.VariantTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestLoginStudentValidation(t *testing.T) {
	svc, _, _, _ := newAuthFixture("secret", time.Hour)

	_, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{
		Mobile: "98765", Password: "123456",
	}, RequestMeta{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
