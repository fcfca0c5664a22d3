package realtime

import (
	"encoding/json"
	"time"
)

// EventName identifies a socket event. The wire names are part of the client
// contract and must not change.
type EventName string

// Inbound events.
const (
	EventUserOnline  EventName = "userOnline"
	EventUserOffline EventName = "userOffline"
	EventJoinRoom    EventName = "joinRoom"
	EventSendMessage EventName = "sendMessage"
	EventMessageRead EventName = "messageReadByUser"
	EventIsTyping    EventName = "isTyping"
	EventStopTyping  EventName = "stopTyping"
	EventCallUser    EventName = "call-user"
	EventAnswerCall  EventName = "answer-call"
	EventICE         EventName = "ice-candidate"
)

// Outbound events.
const (
	EventOnlineUsers       EventName = "onlineUsers"
	EventLastSeenUpdate    EventName = "lastSeenUpdate"
	EventNewMessage        EventName = "newMessage"
	EventMessageReadOut    EventName = "messageRead"
	EventUserTyping        EventName = "userTyping"
	EventUserStoppedTyping EventName = "userStoppedTyping"
	EventIncomingCall      EventName = "incoming-call"
	EventCallAnswered      EventName = "call-answered"
	EventICEOut            EventName = "ice-candidate"
	EventSetBusy           EventName = "set-busy"
)

// Envelope is the frame exchanged over the socket. Data is decoded per event.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is a server-to-client frame carrying an already-typed payload.
type Outbound struct {
	Event EventName   `json:"event"`
	Data  interface{} `json:"data"`
}

// UserPresencePayload accompanies userOnline/userOffline.
type UserPresencePayload struct {
	UserID uint `json:"userId"`
}

// JoinRoomPayload subscribes the connection to a room channel.
type JoinRoomPayload struct {
	RoomID uint `json:"roomId"`
	UserID uint `json:"userId"`
}

// AttachmentPayload carries a file reference on sendMessage.
type AttachmentPayload struct {
	URL       string `json:"url"`
	FileName  string `json:"fileName"`
	SizeBytes int64  `json:"sizeBytes"`
}

// SendMessagePayload is the inbound chat message frame.
type SendMessagePayload struct {
	RoomID      uint                `json:"roomId"`
	SenderID    uint                `json:"senderId"`
	Text        string              `json:"text"`
	Type        string              `json:"type"`
	Attachments []AttachmentPayload `json:"attachments"`
	ReplyTo     string              `json:"replyTo"`
}

// MessageReadPayload marks a message read by a room member.
type MessageReadPayload struct {
	MessageID uint `json:"messageId"`
	UserID    uint `json:"userId"`
	RoomID    uint `json:"roomId"`
}

// TypingPayload accompanies isTyping/stopTyping.
type TypingPayload struct {
	RoomID uint `json:"roomId"`
	UserID uint `json:"userId"`
}

// SignalPayload carries call-offer/answer/ICE frames. The signal body is
// opaque to the server and forwarded verbatim.
type SignalPayload struct {
	TargetUserID uint            `json:"targetUserId"`
	CallerID     uint            `json:"callerId"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

// LastSeenPayload is broadcast when a user transitions offline.
type LastSeenPayload struct {
	UserID   uint      `json:"userId"`
	LastSeen time.Time `json:"lastSeen"`
}

// MessageReadBroadcast is sent to the room after a read is recorded.
type MessageReadBroadcast struct {
	MessageID uint      `json:"messageId"`
	UserID    uint      `json:"userId"`
	RoomID    uint      `json:"roomId"`
	ReadAt    time.Time `json:"readAt"`
}

// TypingBroadcast is sent to everyone in the room except the typist.
type TypingBroadcast struct {
	RoomID   uint `json:"roomId"`
	UserID   uint `json:"userId"`
	IsTyping bool `json:"isTyping"`
}

// BusyPayload accompanies set-busy so both call parties render busy state.
type BusyPayload struct {
	UserID uint   `json:"userId"`
	Status string `json:"status"`
}
