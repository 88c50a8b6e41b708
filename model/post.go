package model

import (
	"time"

	"gorm.io/gorm"
)

// AttachmentKind classifies a post attachment by its declared content type.
// Each kind maps to its own storage prefix.
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindVideo    AttachmentKind = "video"
	AttachmentKindDocument AttachmentKind = "document"
)

// KindForContentType classifies a declared MIME type into an attachment kind.
// Anything that is neither image/* nor video/* is stored as a document.
func KindForContentType(contentType string) AttachmentKind {
	switch {
	case len(contentType) >= 6 && contentType[:6] == "image/":
		return AttachmentKindImage
	case len(contentType) >= 6 && contentType[:6] == "video/":
		return AttachmentKindVideo
	default:
		return AttachmentKindDocument
	}
}

// Post represents a feed post scoped to the author's university.
type Post struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	AuthorID     uint           `gorm:"index;not null" json:"author_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	UniversityID uint           `gorm:"index;not null" json:"university_id"`

	// Relationships
	Author      *User            `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	University  *University      `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
	Attachments []PostAttachment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	Likes       []PostLike       `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comments    []PostComment    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// PostAttachment records one stored file attached to a post.
type PostAttachment struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	PostID   uint           `gorm:"index;not null" json:"post_id"`
	Kind     AttachmentKind `gorm:"type:varchar(20);not null" json:"kind"`
	URL      string         `gorm:"type:varchar(512);not null" json:"url"` // stored artifact path
	Filename string         `gorm:"type:varchar(255);not null" json:"filename"`
}

// PostLike is set membership: at most one row per (post, user). The like
// operation toggles the row rather than incrementing a counter.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// PostComment is an embedded comment tied to a user identity.
type PostComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
