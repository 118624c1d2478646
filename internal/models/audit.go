package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionTeacherCreate  = "TEACHER_CREATE"
	AuditActionTeacherDelete  = "TEACHER_DELETE"
	AuditActionStudentCreate  = "STUDENT_CREATE"
	AuditActionStudentDelete  = "STUDENT_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
