package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

type teacherRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	UpdateProfile(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// UpdateProfileRequest holds the self-service profile fields. A new password
// is only accepted together with the current one.
type UpdateProfileRequest struct {
	Mobile       string  `json:"mobile" validate:"omitempty,len=10,numeric"`
	ProfilePhoto *string `json:"profile_photo"`
	OldPassword  string  `json:"old_password"`
	NewPassword  string  `json:"new_password" validate:"omitempty,min=6"`
}

// CreateTeacherRequest holds payload for the admin create-teacher operation.
type CreateTeacherRequest struct {
	Name     string             `json:"name" validate:"required"`
	Email    string             `json:"email" validate:"required,email"`
	Password string             `json:"password" validate:"required,min=6"`
	Mobile   string             `json:"mobile" validate:"required,len=10,numeric"`
	Role     models.TeacherRole `json:"role" validate:"omitempty,oneof=Teacher Admin"`
}

// TeacherService handles teacher profile and account management use-cases.
type TeacherService struct {
	repo      teacherRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Get returns a teacher profile with the secret stripped.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	teacher.PasswordHash = ""
	return teacher, nil
}

// UpdateProfile changes mobile, photo and optionally the password for the
// acting teacher. Password changes require the current password to match.
func (s *TeacherService) UpdateProfile(ctx context.Context, teacherID string, req UpdateProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	teacher, err := s.repo.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if req.NewPassword != "" {
		if req.OldPassword == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "current password required to set a new one")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.OldPassword)); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "incorrect current password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		teacher.PasswordHash = string(hash)
		s.recordAudit(ctx, teacherID, models.AuditActionPasswordChange, teacherID, nil)
	}

	if req.Mobile != "" {
		teacher.Mobile = req.Mobile
	}
	if req.ProfilePhoto != nil {
		teacher.ProfilePhoto = req.ProfilePhoto
	}

	if err := s.repo.UpdateProfile(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	teacher.PasswordHash = ""
	return teacher, nil
}

// List returns all teacher accounts, secrets stripped. Admin only; the role
// gate runs in middleware before this is reached.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	for i := range teachers {
		teachers[i].PasswordHash = ""
	}
	return teachers, nil
}

// Create registers a new teacher account. Role defaults to Teacher.
func (s *TeacherService) Create(ctx context.Context, actorID string, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	role := req.Role
	if role == "" {
		role = models.RoleTeacher
	}

	teacher := &models.Teacher{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Mobile:       req.Mobile,
		Role:         role,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTeacherCreate, teacher.ID, []byte(`{"email":"`+teacher.Email+`"}`))

	teacher.PasswordHash = ""
	return teacher, nil
}

// Delete removes a teacher account. Tokens already issued for it die on
// their next resolution.
func (s *TeacherService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.recordAudit(ctx, actorID, models.AuditActionTeacherDelete, id, nil)
	return nil
}

func (s *TeacherService) recordAudit(ctx context.Context, actorID, action, resourceID string, detail []byte) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    &actorID,
		Action:     action,
		Resource:   "teacher",
		ResourceID: &resourceID,
		Detail:     detail,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}
