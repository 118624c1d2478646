package models

import "time"

// StudentCategory enumerates admission categories.
type StudentCategory string

const (
	CategoryGeneral StudentCategory = "Gen"
	CategorySC      StudentCategory = "SC"
	CategoryST      StudentCategory = "ST"
	CategoryOBC     StudentCategory = "OBC"
	CategoryEWS     StudentCategory = "EWS"
)

// RationCardType enumerates ration card schemes collected at admission.
type RationCardType string

const (
	RationAPL       RationCardType = "APL"
	RationBPL       RationCardType = "BPL"
	RationAntyodaya RationCardType = "Antyodaya"
	RationAnnapurna RationCardType = "Annapurna"
	RationPriority  RationCardType = "Priority"
	RationNone      RationCardType = "None"
)

// Student represents an admitted learner. Mobile is the login identifier,
// SrNo the admission register number; both are unique.
type Student struct {
	ID           string          `db:"id" json:"id"`
	SrNo         string          `db:"sr_no" json:"sr_no"`
	Name         string          `db:"name" json:"name"`
	Email        *string         `db:"email" json:"email,omitempty"`
	Mobile       string          `db:"mobile" json:"mobile"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Class        string          `db:"class" json:"class"`
	ProfilePhoto *string         `db:"profile_photo" json:"profile_photo,omitempty"`
	FatherName   string          `db:"father_name" json:"father_name"`
	FatherAadhar *string         `db:"father_aadhar_no" json:"father_aadhar_no,omitempty"`
	MotherName   string          `db:"mother_name" json:"mother_name"`
	MotherAadhar *string         `db:"mother_aadhar_no" json:"mother_aadhar_no,omitempty"`
	Address      string          `db:"address" json:"address"`
	DOB          *string         `db:"dob" json:"dob,omitempty"`
	AadharNo     string          `db:"aadhar_no" json:"aadhar_no"`
	Category     StudentCategory `db:"category" json:"category"`
	RationType   RationCardType  `db:"ration_card_type" json:"ration_card_type"`
	RationCardNo *string         `db:"ration_card_no" json:"ration_card_no,omitempty"`
	BankName     *string         `db:"bank_name" json:"bank_name,omitempty"`
	BankIFSC     *string         `db:"bank_ifsc" json:"bank_ifsc,omitempty"`
	BankAccount  *string         `db:"bank_account_no" json:"bank_account_no,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentFilter narrows admission register listings.
type StudentFilter struct {
	Class string
}
