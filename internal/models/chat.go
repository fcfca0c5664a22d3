package models

import "time"

// Room types.
const (
	RoomTypeDM    = "DM"
	RoomTypeGroup = "GROUP"
)

// Member roles.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Attachment kinds derived from the file name suffix.
const (
	AttachmentImage = "IMAGE"
	AttachmentVideo = "VIDEO"
	AttachmentAudio = "AUDIO"
	AttachmentFile  = "FILE"
)

// DeletedMessageText replaces the body of a soft-deleted message.
const DeletedMessageText = "This message was deleted"

// Room is a chat container, either a direct pair or a named group.
type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:16;not null;default:DM" json:"type"`
	Name      string    `gorm:"size:128" json:"name"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	DMKey     *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []RoomMember `json:"members,omitempty"`
}

// RoomMember associates a user with a room and carries their role.
type RoomMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RoomID   uint      `gorm:"index:idx_room_user,unique;not null" json:"room_id"`
	UserID   uint      `gorm:"index:idx_room_user,unique;not null" json:"user_id"`
	Role     string    `gorm:"size:16;not null;default:MEMBER" json:"role"`
	IsTyping bool      `gorm:"not null;default:false" json:"is_typing"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `json:"user,omitempty"`
}

// Message is a chat message with optional attachments and a reply pointer.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"room_id"`
	SenderID  uint      `gorm:"index;not null" json:"sender_id"`
	Text      string    `gorm:"type:text" json:"text"`
	Type      string    `gorm:"size:16;default:TEXT" json:"type"`
	ReplyToID *uint     `gorm:"index" json:"reply_to_id"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender      User                `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
	Reactions   []MessageReaction   `json:"reactions,omitempty"`
	Reads       []MessageRead       `json:"reads,omitempty"`
	ReplyTo     *Message            `gorm:"foreignKey:ReplyToID" json:"reply_to,omitempty"`
}

// MessageAttachment stores a classified file reference for a message.
type MessageAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"index;not null" json:"message_id"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	FileName  string    `gorm:"size:256" json:"file_name"`
	Kind      string    `gorm:"size:16;not null;default:FILE" json:"kind"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageReaction records an emoji reaction from a user.
type MessageReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"index:idx_reaction,unique;not null" json:"message_id"`
	UserID    uint      `gorm:"index:idx_reaction,unique;not null" json:"user_id"`
	Emoji     string    `gorm:"size:16;index:idx_reaction,unique;not null" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRead marks that a room member has seen a message. Keyed by
// membership rather than user so the row also pins down which room the read
// happened in.
type MessageRead struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"index:idx_message_member,unique;not null" json:"message_id"`
	MemberID  uint      `gorm:"index:idx_message_member,unique;not null" json:"member_id"`
	ReadAt    time.Time `json:"read_at"`
}

// MessageReceipt is the user-scoped delivery/read marker backing the sender's
// status badge. Kept separate from MessageRead on purpose: the two answer
// different queries.
type MessageReceipt struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MessageID   uint       `gorm:"index:idx_message_user,unique;not null" json:"message_id"`
	UserID      uint       `gorm:"index:idx_message_user,unique;not null" json:"user_id"`
	DeliveredAt *time.Time `json:"delivered_at"`
	ReadAt      *time.Time `json:"read_at"`
}
