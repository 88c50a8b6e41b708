package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleAlumni || role == RoleAdmin
}

// User represents a registered member of the platform. Every user belongs to
// exactly one university (the tenancy boundary).
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Role         string         `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	UniversityID uint           `gorm:"index;not null" json:"university_id"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Profile fields
	ProfilePicture string         `gorm:"type:varchar(512)" json:"profile_picture,omitempty"`
	Bio            string         `gorm:"type:varchar(500)" json:"bio,omitempty"`
	Position       string         `gorm:"type:varchar(255)" json:"position,omitempty"`
	Company        string         `gorm:"type:varchar(255)" json:"company,omitempty"`
	GraduationYear int            `json:"graduation_year,omitempty"`
	Skills         datatypes.JSON `gorm:"type:json" json:"skills,omitempty"`
	Location       string         `gorm:"type:varchar(255)" json:"location,omitempty"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone,omitempty"`
	CGPA           float64        `json:"cgpa,omitempty"`
	IsVerified     bool           `gorm:"default:false" json:"is_verified"`
	SocialLinks    datatypes.JSON `gorm:"type:json" json:"social_links,omitempty"`

	// Relationships
	University *University `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
}

// UserFollow is one directed edge of the follow graph. A row means Follower
// follows Following. Both views of the graph (A's following list, B's
// followers list) read the same row, so they can never drift apart; the
// toggle still runs in a transaction to keep the membership check and the
// write atomic.
type UserFollow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserFollow
func (UserFollow) TableName() string {
	return "user_follows"
}
