package models

import "time"

// PostType classifies a teacher posting.
type PostType string

const (
	PostNotice   PostType = "Notice"
	PostHomework PostType = "Homework"
	PostMaterial PostType = "Material"
)

// TargetAllClasses is the sentinel class value visible to every student.
const TargetAllClasses = "All"

// Post is a notice, homework assignment, or study material shared by a
// teacher. Posts are retained for a fixed period and then swept by the
// cleanup queue.
type Post struct {
	ID             string    `db:"id" json:"id"`
	Type           PostType  `db:"type" json:"type"`
	Title          string    `db:"title" json:"title"`
	Description    *string   `db:"description" json:"description,omitempty"`
	AttachmentURL  *string   `db:"attachment_url" json:"attachment_url,omitempty"`
	AttachmentName *string   `db:"attachment_name" json:"attachment_name,omitempty"`
	TargetClass    string    `db:"target_class" json:"target_class"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PostWithAuthor carries the author's display name for admin listings.
type PostWithAuthor struct {
	Post
	AuthorName string `db:"author_name" json:"author_name"`
}
