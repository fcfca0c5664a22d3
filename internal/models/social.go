package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a feed entry authored by a user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Body      string    `gorm:"type:text" json:"body"`
	ImageURL  string    `gorm:"size:1024" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author   User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Comments []Comment  `json:"comments,omitempty"`
	Likes    []PostLike `json:"likes,omitempty"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// PostLike records a single like per user per post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index:idx_post_like,unique;not null" json:"post_id"`
	UserID    uint      `gorm:"index:idx_post_like,unique;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Story is an ephemeral media entry that disappears after ExpiresAt.
type Story struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index;not null" json:"user_id"`
	MediaURL  string            `gorm:"size:1024;not null" json:"media_url"`
	Kind      string            `gorm:"size:16;not null;default:IMAGE" json:"kind"`
	Caption   string            `gorm:"size:512" json:"caption"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	ExpiresAt time.Time         `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`

	User User `json:"user,omitempty"`
}
