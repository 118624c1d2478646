package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	ExistsByStudentAndPost(ctx context.Context, studentID, postID string) (bool, error)
	ListByPost(ctx context.Context, postID string) ([]models.SubmissionWithStudent, error)
}

type submissionPostLookup interface {
	FindByID(ctx context.Context, id string) (*models.Post, error)
}

// SubmitRequest holds payload for a homework submission. The student id is
// never part of the payload; it comes from the resolved principal.
type SubmitRequest struct {
	PostID  string  `json:"post_id" validate:"required"`
	FileURL string  `json:"file_url" validate:"required,url"`
	Remarks *string `json:"remarks"`
}

// SubmissionService handles homework submission use-cases.
type SubmissionService struct {
	repo      submissionRepository
	posts     submissionPostLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(repo submissionRepository, posts submissionPostLookup, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, posts: posts, validator: validate, logger: logger}
}

// Submit records a homework upload for the acting student. Each student may
// submit once per post.
func (s *SubmissionService) Submit(ctx context.Context, studentID string, req SubmitRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	if _, err := s.posts.FindByID(ctx, req.PostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	exists, err := s.repo.ExistsByStudentAndPost(ctx, studentID, req.PostID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you have already submitted this assignment")
	}

	sub := &models.Submission{
		StudentID: studentID,
		PostID:    req.PostID,
		FileURL:   req.FileURL,
		Remarks:   req.Remarks,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}
	return sub, nil
}

// ListByPost returns submissions for an assignment with student details.
func (s *SubmissionService) ListByPost(ctx context.Context, postID string) ([]models.SubmissionWithStudent, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	subs, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return subs, nil
}
