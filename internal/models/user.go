package models

import "time"

// User carries the profile fields exposed alongside messages and posts.
// Credential handling lives in the identity provider; this table only mirrors
// what the API needs for hydration.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	FullName  string    `gorm:"size:128" json:"full_name"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	Bio       string    `gorm:"size:512" json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Friendship statuses.
const (
	FriendshipPending  = "PENDING"
	FriendshipAccepted = "ACCEPTED"
)

// Friendship links two users. Rows are stored once per pair with UserID as
// the requester.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_friend_pair,unique;not null" json:"user_id"`
	FriendID  uint      `gorm:"index:idx_friend_pair,unique;not null" json:"friend_id"`
	Status    string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
