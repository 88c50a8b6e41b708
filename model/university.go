package model

import (
	"time"

	"gorm.io/gorm"
)

// University represents an educational institution and is the multi-tenancy
// boundary: users, events, jobs and posts are all scoped to one university.
// Deleting a university does not cascade to its dependents.
type University struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"not null;uniqueIndex" json:"name"`
	Location        string         `gorm:"type:varchar(255);not null" json:"location"`
	Verified        bool           `gorm:"default:false" json:"verified"`
	Logo            string         `gorm:"type:varchar(512)" json:"logo,omitempty"`
	Description     string         `gorm:"type:varchar(1000)" json:"description,omitempty"`
	Website         string         `gorm:"type:varchar(255)" json:"website,omitempty"`
	StudentsCount   int            `gorm:"default:0" json:"students_count"`
	AlumniCount     int            `gorm:"default:0" json:"alumni_count"`
	EstablishedYear int            `json:"established_year,omitempty"`
	ContactEmail    string         `gorm:"type:varchar(255)" json:"contact_email,omitempty"`
	ContactPhone    string         `gorm:"type:varchar(50)" json:"contact_phone,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
