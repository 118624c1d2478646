package models

import "github.com/golang-jwt/jwt/v5"

// Variant names one of the two disjoint principal tables a session belongs
// to. A token is only usable against routes of the variant whose table
// resolves its id; the token itself does not record the variant.
type Variant string

const (
	VariantTeacher Variant = "Teacher"
	VariantStudent Variant = "Student"
)

// Principal is the authenticated actor resolved from a bearer token: exactly
// one of Teacher or Student is set, secret fields already stripped.
type Principal struct {
	Variant Variant
	Teacher *Teacher
	Student *Student
}

// ID returns the principal's record id regardless of variant.
func (p *Principal) ID() string {
	switch {
	case p == nil:
		return ""
	case p.Teacher != nil:
		return p.Teacher.ID
	case p.Student != nil:
		return p.Student.ID
	}
	return ""
}

// Role returns the teacher role, or RoleTeacher-equivalent absence for
// students (students carry no role and never pass an admin gate).
func (p *Principal) Role() TeacherRole {
	if p != nil && p.Teacher != nil {
		return p.Teacher.Role
	}
	return ""
}

// TokenClaims is the JWT payload. Only the principal id is embedded; the
// live record is re-read on every request so deleted accounts are cut off
// immediately.
type TokenClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TeacherLoginRequest authenticates a teacher by email.
type TeacherLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StudentLoginRequest authenticates a student by mobile number.
type StudentLoginRequest struct {
	Mobile   string `json:"mobile" validate:"required,len=10,numeric"`
	Password string `json:"password" validate:"required"`
}

// TeacherLoginResponse mirrors what the mobile client stores after login.
type TeacherLoginResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         TeacherRole `json:"role"`
	ProfilePhoto *string     `json:"profile_photo,omitempty"`
	Token        string      `json:"token"`
}

// StudentLoginResponse mirrors the student session payload.
type StudentLoginResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Class        string  `json:"class"`
	SrNo         string  `json:"sr_no"`
	ProfilePhoto *string `json:"profile_photo,omitempty"`
	Token        string  `json:"token"`
}
