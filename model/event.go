package model

import (
	"time"

	"gorm.io/gorm"
)

// EventType represents the category of an event
type EventType string

const (
	EventTypeCareerFair EventType = "career-fair"
	EventTypeHackathon  EventType = "hackathon"
	EventTypeWorkshop   EventType = "workshop"
	EventTypeNetworking EventType = "networking"
	EventTypeSeminar    EventType = "seminar"
	EventTypeOther      EventType = "other"
)

// ValidEventType reports whether t is a known event type.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeCareerFair, EventTypeHackathon, EventTypeWorkshop,
		EventTypeNetworking, EventTypeSeminar, EventTypeOther:
		return true
	}
	return false
}

// Event represents a university event with capacity-bounded registration.
type Event struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Date         time.Time      `gorm:"not null;index" json:"date"`
	Time         string         `gorm:"type:varchar(50);not null" json:"time"`
	Type         EventType      `gorm:"type:varchar(20);default:'other'" json:"type"`
	Host         string         `gorm:"not null" json:"host"`
	Location     string         `gorm:"type:varchar(255)" json:"location,omitempty"`
	MaxAttendees int            `gorm:"default:100" json:"max_attendees"`
	Image        string         `gorm:"type:varchar(512)" json:"image,omitempty"`
	// No column default: a default:true tag would make gorm drop an explicit
	// false on insert in favor of the column default.
	IsActive     bool           `gorm:"not null" json:"is_active"`
	UniversityID uint           `gorm:"index;not null" json:"university_id"`
	CreatedByID  uint           `gorm:"index;not null" json:"created_by_id"`

	// Relationships
	University *University     `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
	CreatedBy  *User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Attendees  []EventAttendee `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"attendees,omitempty"`
}

// EventAttendee is an embedded registration record. One registration per email
// per event; the user reference is optional so anonymous visitors can join.
type EventAttendee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EventID      uint      `gorm:"not null;uniqueIndex:idx_event_attendee_email" json:"event_id"`
	UserID       *uint     `gorm:"index" json:"user_id,omitempty"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null;uniqueIndex:idx_event_attendee_email" json:"email"`
	Phone        string    `gorm:"type:varchar(50)" json:"phone,omitempty"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
