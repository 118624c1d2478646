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

// StudentRepository provides database access to the admission register.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, sr_no, name, email, mobile, password_hash, class, profile_photo,
	father_name, father_aadhar_no, mother_name, mother_aadhar_no, address, dob, aadhar_no,
	category, ration_card_type, ration_card_no, bank_name, bank_ifsc, bank_account_no,
	created_at, updated_at`

// FindByMobile returns a student by login mobile number.
func (r *StudentRepository) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE mobile = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, mobile); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by mobile: %w", err)
	}
	return &student, nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// ExistsBySrNoOrMobile reports whether a record already claims the admission
// number or mobile, excluding the given id when updating.
func (r *StudentRepository) ExistsBySrNoOrMobile(ctx context.Context, srNo, mobile, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE (sr_no = $1 OR mobile = $2) AND ($3 = '' OR id <> $3))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, srNo, mobile, excludeID); err != nil {
		return false, fmt.Errorf("check student uniqueness: %w", err)
	}
	return exists, nil
}

// List returns students ordered by class then admission number.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students`, studentColumns)
	args := []interface{}{}
	if filter.Class != "" {
		query += ` WHERE class = $1`
		args = append(args, filter.Class)
	}
	query += ` ORDER BY class ASC, sr_no ASC`

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Create inserts a new admission record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, sr_no, name, email, mobile, password_hash, class, profile_photo,
		father_name, father_aadhar_no, mother_name, mother_aadhar_no, address, dob, aadhar_no,
		category, ration_card_type, ration_card_no, bank_name, bank_ifsc, bank_account_no, created_at, updated_at)
		VALUES (:id, :sr_no, :name, :email, :mobile, :password_hash, :class, :profile_photo,
		:father_name, :father_aadhar_no, :mother_name, :mother_aadhar_no, :address, :dob, :aadhar_no,
		:category, :ration_card_type, :ration_card_no, :bank_name, :bank_ifsc, :bank_account_no, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists the mutable admission fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET sr_no = :sr_no, name = :name, email = :email, mobile = :mobile,
		class = :class, profile_photo = :profile_photo, father_name = :father_name,
		father_aadhar_no = :father_aadhar_no, mother_name = :mother_name, mother_aadhar_no = :mother_aadhar_no,
		address = :address, dob = :dob, aadhar_no = :aadhar_no, category = :category,
		ration_card_type = :ration_card_type, ration_card_no = :ration_card_no, bank_name = :bank_name,
		bank_ifsc = :bank_ifsc, bank_account_no = :bank_account_no, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes an admission record.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
