package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pathshala-plus/pathshala-api/internal/models"
)

// SubmissionRepository provides database access for homework submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	const query = `INSERT INTO submissions (id, student_id, post_id, file_url, remarks, submitted_at)
		VALUES (:id, :student_id, :post_id, :file_url, :remarks, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// ExistsByStudentAndPost reports whether the student already submitted for the post.
func (r *SubmissionRepository) ExistsByStudentAndPost(ctx context.Context, studentID, postID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM submissions WHERE student_id = $1 AND post_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, postID); err != nil {
		return false, fmt.Errorf("check submission exists: %w", err)
	}
	return exists, nil
}

// ListByPost returns submissions for a post with student register details,
// newest first.
func (r *SubmissionRepository) ListByPost(ctx context.Context, postID string) ([]models.SubmissionWithStudent, error) {
	const query = `SELECT sub.id, sub.student_id, sub.post_id, sub.file_url, sub.remarks, sub.submitted_at,
		st.name AS student_name, st.sr_no AS student_sr_no, st.class AS student_class, st.profile_photo AS student_photo
		FROM submissions sub JOIN students st ON st.id = sub.student_id
		WHERE sub.post_id = $1
		ORDER BY sub.submitted_at DESC`
	var subs []models.SubmissionWithStudent
	if err := r.db.SelectContext(ctx, &subs, query, postID); err != nil {
		return nil, fmt.Errorf("list submissions by post: %w", err)
	}
	return subs, nil
}
