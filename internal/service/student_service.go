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

// defaultStudentPassword seeds new admissions; students change it after
// first login from the mobile client.
const defaultStudentPassword = "123456"

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsBySrNoOrMobile(ctx context.Context, srNo, mobile, excludeID string) (bool, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentRequest holds the admission form fields. The numeric format rules
// (12-digit aadhar, 10-digit mobile, 11-char IFSC) are enforced here rather
// than in the client.
type StudentRequest struct {
	SrNo         string                 `json:"sr_no" validate:"required"`
	Name         string                 `json:"name" validate:"required"`
	Email        *string                `json:"email" validate:"omitempty,email"`
	Mobile       string                 `json:"mobile" validate:"required,len=10,numeric"`
	Password     string                 `json:"password" validate:"omitempty,min=6"`
	Class        string                 `json:"class" validate:"required"`
	ProfilePhoto *string                `json:"profile_photo"`
	FatherName   string                 `json:"father_name" validate:"required"`
	FatherAadhar *string                `json:"father_aadhar_no" validate:"omitempty,len=12,numeric"`
	MotherName   string                 `json:"mother_name" validate:"required"`
	MotherAadhar *string                `json:"mother_aadhar_no" validate:"omitempty,len=12,numeric"`
	Address      string                 `json:"address" validate:"required"`
	DOB          *string                `json:"dob"`
	AadharNo     string                 `json:"aadhar_no" validate:"required,len=12,numeric"`
	Category     models.StudentCategory `json:"category" validate:"required,oneof=Gen SC ST OBC EWS"`
	RationType   models.RationCardType  `json:"ration_card_type" validate:"required,oneof=APL BPL Antyodaya Annapurna Priority None"`
	RationCardNo *string                `json:"ration_card_no"`
	BankName     *string                `json:"bank_name"`
	BankIFSC     *string                `json:"bank_ifsc" validate:"omitempty,len=11,alphanum"`
	BankAccount  *string                `json:"bank_account_no" validate:"omitempty,numeric"`
}

// StudentService handles admission register use-cases.
type StudentService struct {
	repo      studentRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns admission records, optionally narrowed to one class.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	for i := range students {
		students[i].PasswordHash = ""
	}
	return students, nil
}

// Get returns one admission record.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.PasswordHash = ""
	return student, nil
}

// Create admits a new student. SrNo and mobile must both be unused.
func (s *StudentService) Create(ctx context.Context, actorID string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	exists, err := s.repo.ExistsBySrNoOrMobile(ctx, req.SrNo, req.Mobile, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate admission")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student with this SR No. or mobile already exists")
	}

	password := req.Password
	if password == "" {
		password = defaultStudentPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		SrNo:         req.SrNo,
		Name:         req.Name,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: string(hash),
		Class:        req.Class,
		ProfilePhoto: req.ProfilePhoto,
		FatherName:   req.FatherName,
		FatherAadhar: req.FatherAadhar,
		MotherName:   req.MotherName,
		MotherAadhar: req.MotherAadhar,
		Address:      req.Address,
		DOB:          req.DOB,
		AadharNo:     req.AadharNo,
		Category:     req.Category,
		RationType:   req.RationType,
		RationCardNo: req.RationCardNo,
		BankName:     req.BankName,
		BankIFSC:     req.BankIFSC,
		BankAccount:  req.BankAccount,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.recordAudit(ctx, actorID, models.AuditActionStudentCreate, student.ID)

	student.PasswordHash = ""
	return student, nil
}

// Update modifies an admission record. Password is untouched here.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	exists, err := s.repo.ExistsBySrNoOrMobile(ctx, req.SrNo, req.Mobile, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate admission")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student with this SR No. or mobile already exists")
	}

	student.SrNo = req.SrNo
	student.Name = req.Name
	student.Email = req.Email
	student.Mobile = req.Mobile
	student.Class = req.Class
	student.ProfilePhoto = req.ProfilePhoto
	student.FatherName = req.FatherName
	student.FatherAadhar = req.FatherAadhar
	student.MotherName = req.MotherName
	student.MotherAadhar = req.MotherAadhar
	student.Address = req.Address
	student.DOB = req.DOB
	student.AadharNo = req.AadharNo
	student.Category = req.Category
	student.RationType = req.RationType
	student.RationCardNo = req.RationCardNo
	student.BankName = req.BankName
	student.BankIFSC = req.BankIFSC
	student.BankAccount = req.BankAccount

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	student.PasswordHash = ""
	return student, nil
}

// Delete removes an admission record; any outstanding student token dies on
// its next resolution.
func (s *StudentService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.recordAudit(ctx, actorID, models.AuditActionStudentDelete, id)
	return nil
}

func (s *StudentService) recordAudit(ctx context.Context, actorID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    &actorID,
		Action:     action,
		Resource:   "student",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}
