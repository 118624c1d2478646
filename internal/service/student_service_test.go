package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	deleted    []string
	lastFilter models.StudentFilter
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsBySrNoOrMobile(ctx context.Context, srNo, mobile, excludeID string) (bool, error) {
	for _, s := range m.students {
		if s.ID == excludeID {
			continue
		}
		if s.SrNo == srNo || s.Mobile == mobile {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	m.lastFilter = filter
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		if filter.Class == "" || s.Class == filter.Class {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func validAdmission() StudentRequest {
	return StudentRequest{
		SrNo:       "101",
		Name:       "Ravi Kumar",
		Mobile:     "9876543210",
		Class:      "5",
		FatherName: "Mohan Kumar",
		MotherName: "Sita Devi",
		Address:    "Village Rampur",
		AadharNo:   "123456789012",
		Category:   models.CategoryGeneral,
		RationType: models.RationNone,
	}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	audit := &mockAudit{}
	svc := NewStudentService(repo, audit, nil, nil)

	student, err := svc.Create(context.Background(), "t1", validAdmission())
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Empty(t, student.PasswordHash)

	// Admissions without an explicit password get the shared default.
	stored := repo.students[student.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(defaultStudentPassword)))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStudentCreate, audit.logs[0].Action)
}

func TestStudentServiceCreateDuplicateSrNo(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", SrNo: "101", Mobile: "1111111111"},
	}}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), "t1", validAdmission())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDuplicateMobile(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", SrNo: "999", Mobile: "9876543210"},
	}}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), "t1", validAdmission())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateBadAadhar(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil, nil)

	req := validAdmission()
	req.AadharNo = "12345"
	_, err := svc.Create(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateKeepsOwnSrNo(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", SrNo: "101", Mobile: "9876543210", PasswordHash: "hash"},
	}}
	svc := NewStudentService(repo, nil, nil, nil)

	// Re-submitting the same SR No. for the same record is not a conflict.
	updated, err := svc.Update(context.Background(), "s1", validAdmission())
	require.NoError(t, err)
	assert.Equal(t, "101", updated.SrNo)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s1": {ID: "s1"}}}
	audit := &mockAudit{}
	svc := NewStudentService(repo, audit, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "t1", "s1"))
	assert.Contains(t, repo.deleted, "s1")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStudentDelete, audit.logs[0].Action)
}

func TestStudentServiceListByClass(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", Class: "5", PasswordHash: "hash"},
		"s2": {ID: "s2", Class: "6", PasswordHash: "hash"},
	}}
	svc := NewStudentService(repo, nil, nil, nil)

	students, err := svc.List(context.Background(), models.StudentFilter{Class: "5"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	assert.Empty(t, students[0].PasswordHash)
}
