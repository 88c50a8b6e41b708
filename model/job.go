package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobType represents the employment category of a job posting
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeInternship JobType = "internship"
	JobTypeContract   JobType = "contract"
	JobTypeRemote     JobType = "remote"
)

// ValidJobType reports whether t is a known job type.
func ValidJobType(t JobType) bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeInternship, JobTypeContract, JobTypeRemote:
		return true
	}
	return false
}

// ApplicationStatus is the classification label of a job application. It is a
// flat set: any status may follow any other, no transition order is enforced.
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusReviewed    ApplicationStatus = "reviewed"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusAccepted    ApplicationStatus = "accepted"
)

// ValidApplicationStatus reports whether s is a known application status.
func ValidApplicationStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusShortlisted,
		ApplicationStatusRejected, ApplicationStatusAccepted:
		return true
	}
	return false
}

// Job represents a job posting scoped to a university.
type Job struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Title        string         `gorm:"not null" json:"title"`
	Company      string         `gorm:"not null" json:"company"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Location     string         `gorm:"type:varchar(255);not null" json:"location"`
	Type         JobType        `gorm:"type:varchar(20);not null" json:"type"`
	Salary       string         `gorm:"type:varchar(100)" json:"salary,omitempty"`
	Requirements datatypes.JSON `gorm:"type:json" json:"requirements,omitempty"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
	// No column default: a default:true tag would make gorm drop an explicit
	// false on insert in favor of the column default.
	IsActive     bool           `gorm:"not null" json:"is_active"`
	CompanyLogo  string         `gorm:"type:varchar(512)" json:"company_logo,omitempty"`
	UniversityID uint           `gorm:"index;not null" json:"university_id"`
	PostedByID   uint           `gorm:"index;not null" json:"posted_by_id"`

	// Relationships
	University   *University      `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
	PostedBy     *User            `gorm:"foreignKey:PostedByID" json:"posted_by,omitempty"`
	Applications []JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"applications,omitempty"`
}

// JobApplication is an embedded application record. One application per email
// per job; the user reference is optional so anonymous applicants can apply.
type JobApplication struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	JobID       uint              `gorm:"not null;uniqueIndex:idx_job_application_email" json:"job_id"`
	UserID      *uint             `gorm:"index" json:"user_id,omitempty"`
	Name        string            `gorm:"not null" json:"name"`
	Email       string            `gorm:"not null;uniqueIndex:idx_job_application_email" json:"email"`
	Resume      string            `gorm:"type:varchar(512)" json:"resume,omitempty"` // stored artifact path
	CGPA        float64           `json:"cgpa,omitempty"`
	CoverLetter string            `gorm:"type:text" json:"cover_letter,omitempty"`
	Status      ApplicationStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	AppliedAt   time.Time         `gorm:"autoCreateTime" json:"applied_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
