package dto

import (
	"time"

	"github.com/amityhq/amity-api/internal/models"
)

// MessageCreateInput is the normalized input for persisting a chat message,
// assembled from the socket frame or the REST payload.
type MessageCreateInput struct {
	RoomID      uint
	SenderID    uint
	Text        string
	Type        string
	Attachments []MessageAttachmentInput
	// ReplyTo is the raw client-supplied message id; empty means no reply.
	ReplyTo string
}

// MessageAttachmentInput is one uploaded file reference on a new message.
type MessageAttachmentInput struct {
	URL       string
	FileName  string
	SizeBytes int64
}

// UserSummary carries the sender profile fields shipped with a message.
// Realtime payloads use camelCase field names for client compatibility.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// AttachmentResponse is a serialized message attachment.
type AttachmentResponse struct {
	ID        uint   `json:"id"`
	URL       string `json:"url"`
	FileName  string `json:"fileName"`
	Kind      string `json:"kind"`
	SizeBytes int64  `json:"sizeBytes"`
}

// ReactionResponse is a serialized emoji reaction.
type ReactionResponse struct {
	ID     uint   `json:"id"`
	UserID uint   `json:"userId"`
	Emoji  string `json:"emoji"`
}

// ReadResponse is a serialized per-member read marker.
type ReadResponse struct {
	MemberID uint      `json:"memberId"`
	ReadAt   time.Time `json:"readAt"`
}

// MessageResponse is the fully-hydrated message shipped over the socket and
// the history endpoint.
type MessageResponse struct {
	ID          uint                 `json:"id"`
	RoomID      uint                 `json:"roomId"`
	SenderID    uint                 `json:"senderId"`
	Sender      UserSummary          `json:"sender"`
	Text        string               `json:"text"`
	Type        string               `json:"type"`
	IsDeleted   bool                 `json:"isDeleted"`
	Attachments []AttachmentResponse `json:"attachments"`
	Reactions   []ReactionResponse   `json:"reactions"`
	Reads       []ReadResponse       `json:"reads"`
	ReplyTo     *MessageResponse     `json:"replyTo,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// MessageHistoryQuery represents query filters for retrieving chat history.
type MessageHistoryQuery struct {
	RoomID uint       `query:"room_id" validate:"required"`
	Before *time.Time `query:"before"`
	Limit  int        `query:"limit" validate:"omitempty,min=1,max=100"`
}

// NewUserSummary converts a user model into its summary DTO.
func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}

// NewMessageResponse converts a hydrated message model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	response := MessageResponse{
		ID:          message.ID,
		RoomID:      message.RoomID,
		SenderID:    message.SenderID,
		Sender:      NewUserSummary(message.Sender),
		Text:        message.Text,
		Type:        message.Type,
		IsDeleted:   message.IsDeleted,
		Attachments: make([]AttachmentResponse, 0, len(message.Attachments)),
		Reactions:   make([]ReactionResponse, 0, len(message.Reactions)),
		Reads:       make([]ReadResponse, 0, len(message.Reads)),
		CreatedAt:   message.CreatedAt,
	}

	for _, attachment := range message.Attachments {
		response.Attachments = append(response.Attachments, AttachmentResponse{
			ID:        attachment.ID,
			URL:       attachment.URL,
			FileName:  attachment.FileName,
			Kind:      attachment.Kind,
			SizeBytes: attachment.SizeBytes,
		})
	}
	for _, reaction := range message.Reactions {
		response.Reactions = append(response.Reactions, ReactionResponse{
			ID:     reaction.ID,
			UserID: reaction.UserID,
			Emoji:  reaction.Emoji,
		})
	}
	for _, read := range message.Reads {
		response.Reads = append(response.Reads, ReadResponse{
			MemberID: read.MemberID,
			ReadAt:   read.ReadAt,
		})
	}
	if message.ReplyTo != nil {
		replied := NewMessageResponse(*message.ReplyTo)
		response.ReplyTo = &replied
	}

	return response
}

// NewMessageResponseSlice converts a slice of models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
