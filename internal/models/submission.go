package models

import "time"

// Submission records a student's homework upload against a post.
// One submission per (student, post).
type Submission struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	PostID      string    `db:"post_id" json:"post_id"`
	FileURL     string    `db:"file_url" json:"file_url"`
	Remarks     *string   `db:"remarks" json:"remarks,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// SubmissionWithStudent includes the submitting student's register details
// for the teacher-facing listing.
type SubmissionWithStudent struct {
	Submission
	StudentName  string  `db:"student_name" json:"student_name"`
	StudentSrNo  string  `db:"student_sr_no" json:"student_sr_no"`
	StudentClass string  `db:"student_class" json:"student_class"`
	StudentPhoto *string `db:"student_photo" json:"student_photo,omitempty"`
}
