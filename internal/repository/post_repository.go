package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pathshala-plus/pathshala-api/internal/models"
)

// PostRepository provides database access for notices, homework and material.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new instance of PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `id, type, title, description, attachment_url, attachment_name, target_class, created_by, created_at`

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO posts (id, type, title, description, attachment_url, attachment_name, target_class, created_by, created_at)
		VALUES (:id, :type, :title, :description, :attachment_url, :attachment_name, :target_class, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// FindByID returns a post by identifier.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE id = $1 LIMIT 1`, postColumns)
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return &post, nil
}

// ListAll returns every post with its author's name, newest first.
func (r *PostRepository) ListAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	const query = `SELECT p.id, p.type, p.title, p.description, p.attachment_url, p.attachment_name,
		p.target_class, p.created_by, p.created_at, t.name AS author_name
		FROM posts p JOIN teachers t ON t.id = p.created_by
		ORDER BY p.created_at DESC`
	var posts []models.PostWithAuthor
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListByCreator returns posts authored by the given teacher, newest first.
func (r *PostRepository) ListByCreator(ctx context.Context, teacherID string) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE created_by = $1 ORDER BY created_at DESC`, postColumns)
	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, query, teacherID); err != nil {
		return nil, fmt.Errorf("list posts by creator: %w", err)
	}
	return posts, nil
}

// ListForClass returns posts visible to a class: targeted at it or at everyone.
func (r *PostRepository) ListForClass(ctx context.Context, class string) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE target_class IN ($1, $2) ORDER BY created_at DESC`, postColumns)
	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, query, models.TargetAllClasses, class); err != nil {
		return nil, fmt.Errorf("list posts for class: %w", err)
	}
	return posts, nil
}

// Delete removes a post and its submissions.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete post: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete post submissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return tx.Commit()
}

// DeleteOlderThan removes posts created before the cutoff together with their
// submissions, returning how many posts were swept.
func (r *PostRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin retention sweep: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM submissions WHERE post_id IN (SELECT id FROM posts WHERE created_at < $1)`, cutoff); err != nil {
		return 0, fmt.Errorf("sweep expired submissions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep expired posts: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		count = 0
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
