package dto

import (
	"time"

	"github.com/amityhq/amity-api/internal/models"
)

// DirectRoomCreateRequest opens (or returns) the DM room for two users.
type DirectRoomCreateRequest struct {
	RecipientID uint `json:"recipient_id" validate:"required"`
}

// GroupRoomCreateRequest creates a named group room.
type GroupRoomCreateRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=128"`
	MemberIDs []uint `json:"member_ids" validate:"required,min=1"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

// RoomMemberResponse is a serialized room membership.
type RoomMemberResponse struct {
	ID       uint        `json:"id"`
	UserID   uint        `json:"user_id"`
	Role     string      `json:"role"`
	IsTyping bool        `json:"is_typing"`
	JoinedAt time.Time   `json:"joined_at"`
	User     UserSummary `json:"user"`
}

// RoomResponse is a serialized room with its members and latest message.
type RoomResponse struct {
	ID          uint                 `json:"id"`
	Type        string               `json:"type"`
	Name        string               `json:"name"`
	AvatarURL   string               `json:"avatar_url"`
	CreatedAt   time.Time            `json:"created_at"`
	Members     []RoomMemberResponse `json:"members"`
	LastMessage *MessageResponse     `json:"last_message,omitempty"`
}

// NewRoomMemberResponse converts a membership model to a DTO.
func NewRoomMemberResponse(member models.RoomMember) RoomMemberResponse {
	return RoomMemberResponse{
		ID:       member.ID,
		UserID:   member.UserID,
		Role:     member.Role,
		IsTyping: member.IsTyping,
		JoinedAt: member.JoinedAt,
		User:     NewUserSummary(member.User),
	}
}

// NewRoomResponse converts a room model to a DTO.
func NewRoomResponse(room models.Room) RoomResponse {
	response := RoomResponse{
		ID:        room.ID,
		Type:      room.Type,
		Name:      room.Name,
		AvatarURL: room.AvatarURL,
		CreatedAt: room.CreatedAt,
		Members:   make([]RoomMemberResponse, 0, len(room.Members)),
	}
	for _, member := range room.Members {
		response.Members = append(response.Members, NewRoomMemberResponse(member))
	}
	return response
}

// NewRoomResponseSlice converts rooms to DTOs.
func NewRoomResponseSlice(rooms []models.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, NewRoomResponse(room))
	}
	return out
}
