package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
)

type postRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.PostWithAuthor, error)
	ListByCreator(ctx context.Context, teacherID string) ([]models.Post, error)
	ListForClass(ctx context.Context, class string) ([]models.Post, error)
	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CreatePostRequest holds payload for posting a notice, homework or material.
// The attachment URL is an opaque reference the client already uploaded
// elsewhere; this service only records it.
type CreatePostRequest struct {
	Type           models.PostType `json:"type" validate:"required,oneof=Notice Homework Material"`
	Title          string          `json:"title" validate:"required"`
	Description    *string         `json:"description"`
	AttachmentURL  *string         `json:"attachment_url" validate:"omitempty,url"`
	AttachmentName *string         `json:"attachment_name"`
	TargetClass    string          `json:"target_class"`
}

// PostService handles notice, homework and material use-cases.
type PostService struct {
	repo      postRepository
	feedCache *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService constructs the post service.
func NewPostService(repo postRepository, feedCache *CacheService, validate *validator.Validate, logger *zap.Logger) *PostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{repo: repo, feedCache: feedCache, validator: validate, logger: logger}
}

// Create publishes a post authored by the given teacher.
func (s *PostService) Create(ctx context.Context, teacherID string, req CreatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}

	target := req.TargetClass
	if target == "" {
		target = models.TargetAllClasses
	}

	post := &models.Post{
		Type:           req.Type,
		Title:          req.Title,
		Description:    req.Description,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
		TargetClass:    target,
		CreatedBy:      teacherID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	s.invalidateFeed(ctx)
	return post, nil
}

// ListForTeacher returns what the acting teacher may see: admins get every
// post with author names, others only their own.
func (s *PostService) ListForTeacher(ctx context.Context, teacher *models.Teacher) ([]models.PostWithAuthor, error) {
	if teacher.Role == models.RoleAdmin {
		posts, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
		}
		return posts, nil
	}

	own, err := s.repo.ListByCreator(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	posts := make([]models.PostWithAuthor, 0, len(own))
	for _, p := range own {
		posts = append(posts, models.PostWithAuthor{Post: p, AuthorName: teacher.Name})
	}
	return posts, nil
}

// Feed returns the posts visible to a student's class, cached per class.
func (s *PostService) Feed(ctx context.Context, class string) ([]models.Post, error) {
	cacheKey := fmt.Sprintf("feed:%s", class)

	var cached []models.Post
	if hit, _ := s.feedCache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	posts, err := s.repo.ListForClass(ctx, class)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feed")
	}

	s.feedCache.Set(ctx, cacheKey, posts)
	return posts, nil
}

// Delete removes a post when the actor owns it or is an admin. The ownership
// OR admin rule lives here, not in the role gate.
func (s *PostService) Delete(ctx context.Context, actor *models.Teacher, postID string) error {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if post.CreatedBy != actor.ID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin may delete this post")
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}

	s.invalidateFeed(ctx)
	return nil
}

// SweepExpired removes posts older than the retention period and reports how
// many were deleted. Invoked by the cleanup queue.
func (s *PostService) SweepExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	count, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep expired posts: %w", err)
	}
	if count > 0 {
		s.logger.Info("swept expired posts", zap.Int64("count", count))
		s.invalidateFeed(ctx)
	}
	return count, nil
}

func (s *PostService) invalidateFeed(ctx context.Context) {
	if err := s.feedCache.Invalidate(ctx, "feed:*"); err != nil {
		s.logger.Warn("failed to invalidate feed cache", zap.Error(err))
	}
}
