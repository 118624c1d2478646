package models

import "time"

// TeacherRole distinguishes ordinary teachers from the admin who manages
// teacher accounts. It governs exactly one decision surface: teacher-account
// management. Post deletion checks ownership OR admin separately.
type TeacherRole string

const (
	RoleTeacher TeacherRole = "Teacher"
	RoleAdmin   TeacherRole = "Admin"
)

// Teacher represents a staff account. Email is the login identifier.
type Teacher struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Mobile       string      `db:"mobile" json:"mobile"`
	ProfilePhoto *string     `db:"profile_photo" json:"profile_photo,omitempty"`
	Role         TeacherRole `db:"role" json:"role"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}
