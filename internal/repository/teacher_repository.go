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

// TeacherRepository provides database access for teacher accounts.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new instance of TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, name, email, password_hash, mobile, profile_photo, role, created_at, updated_at`

// FindByEmail returns a teacher by login email.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE email = $1 LIMIT 1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by email: %w", err)
	}
	return &teacher, nil
}

// FindByID returns a teacher by identifier.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE id = $1 LIMIT 1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by id: %w", err)
	}
	return &teacher, nil
}

// List returns all teachers sorted by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers ORDER BY name ASC`, teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ExistsByEmail reports whether a teacher with this email already exists.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teachers WHERE email = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return exists, nil
}

// Create inserts a new teacher account.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, name, email, password_hash, mobile, profile_photo, role, created_at, updated_at)
		VALUES (:id, :name, :email, :password_hash, :mobile, :profile_photo, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// UpdateProfile persists the mutable profile fields.
func (r *TeacherRepository) UpdateProfile(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET mobile = :mobile, profile_photo = :profile_photo, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher profile: %w", err)
	}
	return nil
}

// Delete removes a teacher account. Outstanding tokens for the account become
// unusable on their next resolution.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teachers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}
