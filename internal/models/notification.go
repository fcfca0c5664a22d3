package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification represents a persisted notification targeted to a user.
// MessageID is set for chat notifications so they can be purged when the
// message is deleted.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index;not null" json:"user_id"`
	Type      string            `gorm:"size:64" json:"type"`
	Message   string            `gorm:"type:text" json:"message"`
	MessageID *uint             `gorm:"index" json:"message_id,omitempty"`
	Data      datatypes.JSONMap `gorm:"type:json" json:"data,omitempty"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UploadRecord stores metadata about files pushed to the asset host.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	FileName  string    `gorm:"size:256;not null" json:"file_name"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	MimeType  string    `gorm:"size:128" json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `gorm:"size:128" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}
