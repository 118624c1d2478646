package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

// bearerPrefix is the only accepted Authorization scheme.
const bearerPrefix = "Bearer "

type teacherCredentials interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type studentCredentials interface {
	FindByMobile(ctx context.Context, mobile string) (*models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for token issuance and verification.
// The secret is server-wide and validated at startup; an empty secret here is
// a programming error, not a runtime condition.
type AuthConfig struct {
	Secret      string
	TokenExpiry time.Duration
	Issuer      string
}

// RequestMeta carries client metadata into audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuthService implements credential verification, token issuance, session
// resolution and the admin role gate. Every operation is stateless and
// read-only against the credential tables, so concurrent requests need no
// coordination.
type AuthService struct {
	teachers  teacherCredentials
	students  studentCredentials
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(teachers teacherCredentials, students studentCredentials, audit auditWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TokenExpiry == 0 {
		config.TokenExpiry = 30 * 24 * time.Hour
	}
	return &AuthService{teachers: teachers, students: students, audit: audit, validator: validate, logger: logger, config: config}
}

// LoginTeacher authenticates a teacher by email and returns the session payload.
func (s *AuthService) LoginTeacher(ctx context.Context, req models.TeacherLoginRequest, meta RequestMeta) (*models.TeacherLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	teacher, err := s.teachers.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.IssueToken(teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}

	s.recordLogin(ctx, teacher.ID, meta)

	return &models.TeacherLoginResponse{
		ID:           teacher.ID,
		Name:         teacher.Name,
		Email:        teacher.Email,
		Role:         teacher.Role,
		ProfilePhoto: teacher.ProfilePhoto,
		Token:        token,
	}, nil
}

// LoginStudent authenticates a student by mobile number.
func (s *AuthService) LoginStudent(ctx context.Context, req models.StudentLoginRequest, meta RequestMeta) (*models.StudentLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.students.FindByMobile(ctx, req.Mobile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid mobile or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid mobile or password")
	}

	token, err := s.IssueToken(student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}

	s.recordLogin(ctx, student.ID, meta)

	return &models.StudentLoginResponse{
		ID:           student.ID,
		Name:         student.Name,
		Class:        student.Class,
		SrNo:         student.SrNo,
		ProfilePhoto: student.ProfilePhoto,
		Token:        token,
	}, nil
}

// IssueToken signs a bearer token for an already-verified principal id.
// Purely derived from (id, key, clock); no persistence.
func (s *AuthService) IssueToken(principalID string) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.TokenClaims{
		ID: principalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// Resolve authenticates a raw Authorization header against one principal
// variant. The embedded id is re-read from the live table on every call, so a
// deleted account is rejected even while its token is unexpired. The returned
// principal has its secret hash stripped.
func (s *AuthService) Resolve(ctx context.Context, header string, variant models.Variant) (*models.Principal, error) {
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return nil, appErrors.ErrNoToken
	}

	claims, err := s.verifyToken(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return nil, err
	}

	switch variant {
	case models.VariantTeacher:
		teacher, err := s.teachers.FindByID(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrPrincipalNotFound, "not authorized as Teacher")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		stripped := *teacher
		stripped.PasswordHash = ""
		return &models.Principal{Variant: models.VariantTeacher, Teacher: &stripped}, nil
	case models.VariantStudent:
		student, err := s.students.FindByID(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrPrincipalNotFound, "not authorized as Student")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		stripped := *student
		stripped.PasswordHash = ""
		return &models.Principal{Variant: models.VariantStudent, Student: &stripped}, nil
	default:
		return nil, fmt.Errorf("unknown principal variant %q", variant)
	}
}

// Authorize is the role gate: a pure predicate over an already-resolved
// principal. Only the admin role is ever required.
func (s *AuthService) Authorize(principal *models.Principal, required models.TeacherRole) error {
	if principal == nil || principal.Role() != required {
		return appErrors.ErrAdminRequired
	}
	return nil
}

// ForgotPassword runs the mock reset flow: unknown emails get a 404, known
// ones a success message. No mail is actually sent.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return appErrors.Clone(appErrors.ErrValidation, "email required")
	}
	if _, err := s.teachers.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "email not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	s.logger.Info("password reset requested", zap.String("email", email))
	return nil
}

// verifyToken checks signature and expiry. Both failures collapse into
// TokenInvalid; the caller cannot distinguish them.
func (s *AuthService) verifyToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, "token failed")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "token failed")
	}

	return claims, nil
}

func (s *AuthService) recordLogin(ctx context.Context, principalID string, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		ActorID:    &principalID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &principalID,
		Detail:     []byte(`{"status":"success"}`),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}
}
