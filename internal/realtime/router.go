package realtime

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/dto"
)

// Outcome classifies how a dispatched event ended. Consumed by logging and
// metrics only; clients never see an error frame.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeDropped Outcome = "dropped"
	OutcomeFailed  Outcome = "failed"
)

// MessageService persists inbound chat messages.
type MessageService interface {
	Create(ctx context.Context, input dto.MessageCreateInput) (dto.MessageResponse, error)
}

// ReadService records read markers and receipts.
type ReadService interface {
	MarkRead(ctx context.Context, messageID, userID, roomID uint) (time.Time, error)
}

// TypingRecorder persists the per-member typing flag, best effort.
type TypingRecorder interface {
	SetTyping(ctx context.Context, roomID, userID uint, typing bool) error
}

// PresenceMirror stores a snapshot of the online set in shared storage so
// other nodes and REST handlers can read it without a socket.
type PresenceMirror interface {
	StoreOnline(ctx context.Context, userIDs []uint) error
}

// Router binds inbound socket events to the presence registry and the chat
// services, and re-broadcasts the results.
type Router struct {
	presence *Presence
	gateway  *Gateway
	messages MessageService
	reads    ReadService
	typing   TypingRecorder
	mirror   PresenceMirror
	logger   zerolog.Logger
}

// NewRouter constructs the event router.
func NewRouter(presence *Presence, gateway *Gateway, messages MessageService, reads ReadService, typing TypingRecorder, logger zerolog.Logger) *Router {
	return &Router{
		presence: presence,
		gateway:  gateway,
		messages: messages,
		reads:    reads,
		typing:   typing,
		logger:   logger.With().Str("component", "event_router").Logger(),
	}
}

// SetMirror attaches an optional shared-storage presence snapshot.
func (r *Router) SetMirror(mirror PresenceMirror) {
	r.mirror = mirror
}

// Dispatch handles one inbound frame. Unknown events and precondition
// failures are logged and dropped.
func (r *Router) Dispatch(ctx context.Context, client *Client, env Envelope) Outcome {
	switch env.Event {
	case EventUserOnline:
		return r.handleUserOnline(ctx, client)
	case EventUserOffline:
		return r.handleUserOffline(ctx, client)
	case EventJoinRoom:
		return r.handleJoinRoom(client, env.Data)
	case EventSendMessage:
		return r.handleSendMessage(ctx, client, env.Data)
	case EventMessageRead:
		return r.handleMessageRead(ctx, client, env.Data)
	case EventIsTyping:
		return r.handleTyping(ctx, client, env.Data, true)
	case EventStopTyping:
		return r.handleTyping(ctx, client, env.Data, false)
	case EventCallUser:
		return r.handleSignal(ctx, client, env.Data, EventIncomingCall, true)
	case EventAnswerCall:
		return r.handleSignal(ctx, client, env.Data, EventCallAnswered, true)
	case EventICE:
		return r.handleSignal(ctx, client, env.Data, EventICEOut, false)
	default:
		r.logger.Warn().Str("event", string(env.Event)).Uint("user_id", client.UserID).Msg("unknown socket event")
		return OutcomeDropped
	}
}

// Disconnect cleans up after a dropped connection. A disconnect is not a
// logout: only this connection leaves the registry.
func (r *Router) Disconnect(ctx context.Context, client *Client) {
	r.presence.RemoveConnection(client.ID)
	r.broadcastOnline(ctx)
}

func (r *Router) handleUserOnline(ctx context.Context, client *Client) Outcome {
	r.presence.AddConnection(client.UserID, client.ID)
	r.broadcastOnline(ctx)
	return OutcomeOK
}

func (r *Router) handleUserOffline(ctx context.Context, client *Client) Outcome {
	r.presence.RemoveUser(client.UserID)
	r.broadcastOnline(ctx)
	r.gateway.BroadcastAll(ctx, Outbound{Event: EventLastSeenUpdate, Data: LastSeenPayload{
		UserID:   client.UserID,
		LastSeen: r.presence.LastSeen(client.UserID),
	}})
	return OutcomeOK
}

func (r *Router) handleJoinRoom(client *Client, data json.RawMessage) Outcome {
	var payload JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == 0 {
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Msg("invalid joinRoom payload")
		return OutcomeDropped
	}

	r.gateway.JoinRoom(client, payload.RoomID)
	return OutcomeOK
}

func (r *Router) handleSendMessage(ctx context.Context, client *Client, data json.RawMessage) Outcome {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Msg("invalid sendMessage payload")
		return OutcomeDropped
	}

	input := dto.MessageCreateInput{
		RoomID:   payload.RoomID,
		SenderID: client.UserID,
		Text:     payload.Text,
		Type:     payload.Type,
		ReplyTo:  payload.ReplyTo,
	}
	for _, attachment := range payload.Attachments {
		input.Attachments = append(input.Attachments, dto.MessageAttachmentInput{
			URL:       attachment.URL,
			FileName:  attachment.FileName,
			SizeBytes: attachment.SizeBytes,
		})
	}

	message, err := r.messages.Create(ctx, input)
	if err != nil {
		// No broadcast for a message that was never persisted.
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Uint("room_id", payload.RoomID).Msg("failed to create message")
		return OutcomeFailed
	}

	r.gateway.BroadcastRoom(ctx, message.RoomID, Outbound{Event: EventNewMessage, Data: message}, "")
	return OutcomeOK
}

func (r *Router) handleMessageRead(ctx context.Context, client *Client, data json.RawMessage) Outcome {
	var payload MessageReadPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageID == 0 || payload.RoomID == 0 {
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Msg("invalid messageReadByUser payload")
		return OutcomeDropped
	}

	readAt, err := r.reads.MarkRead(ctx, payload.MessageID, client.UserID, payload.RoomID)
	if err != nil {
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Uint("message_id", payload.MessageID).Msg("failed to mark message read")
		return OutcomeFailed
	}

	r.gateway.BroadcastRoom(ctx, payload.RoomID, Outbound{Event: EventMessageReadOut, Data: MessageReadBroadcast{
		MessageID: payload.MessageID,
		UserID:    client.UserID,
		RoomID:    payload.RoomID,
		ReadAt:    readAt,
	}}, "")
	return OutcomeOK
}

func (r *Router) handleTyping(ctx context.Context, client *Client, data json.RawMessage, typing bool) Outcome {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == 0 {
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Msg("invalid typing payload")
		return OutcomeDropped
	}

	if r.typing != nil {
		if err := r.typing.SetTyping(ctx, payload.RoomID, client.UserID, typing); err != nil {
			r.logger.Debug().Err(err).Uint("room_id", payload.RoomID).Msg("failed to record typing flag")
		}
	}

	event := EventUserTyping
	if !typing {
		event = EventUserStoppedTyping
	}

	r.gateway.BroadcastRoom(ctx, payload.RoomID, Outbound{Event: event, Data: TypingBroadcast{
		RoomID:   payload.RoomID,
		UserID:   client.UserID,
		IsTyping: typing,
	}}, client.ID)
	return OutcomeOK
}

func (r *Router) handleSignal(ctx context.Context, client *Client, data json.RawMessage, outbound EventName, markBusy bool) Outcome {
	var payload SignalPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TargetUserID == 0 {
		r.logger.Warn().Err(err).Uint("user_id", client.UserID).Msg("invalid signaling payload")
		return OutcomeDropped
	}

	targetConnections := r.presence.Connections(payload.TargetUserID)
	if len(targetConnections) == 0 {
		// No offline-call queueing: the signal is simply not forwarded.
		r.logger.Info().Uint("caller_id", client.UserID).Uint("target_id", payload.TargetUserID).Str("event", string(outbound)).Msg("signaling target has no connections")
		return OutcomeDropped
	}

	payload.CallerID = client.UserID
	r.gateway.SendToConnections(targetConnections, Outbound{Event: outbound, Data: payload})

	if markBusy {
		// Busy is set optimistically on both parties as soon as the offer or
		// answer is relayed, before any acceptance.
		r.presence.SetStatus(payload.TargetUserID, StatusBusy)
		r.presence.SetStatus(client.UserID, StatusBusy)

		for _, userID := range []uint{client.UserID, payload.TargetUserID} {
			busy := Outbound{Event: EventSetBusy, Data: BusyPayload{UserID: userID, Status: StatusBusy}}
			r.gateway.SendToConnections(r.presence.Connections(client.UserID), busy)
			r.gateway.SendToConnections(targetConnections, busy)
		}
	}

	return OutcomeOK
}

func (r *Router) broadcastOnline(ctx context.Context) {
	online := r.presence.ListOnline()
	sort.Slice(online, func(i, j int) bool { return online[i] < online[j] })

	if r.mirror != nil {
		if err := r.mirror.StoreOnline(ctx, online); err != nil {
			r.logger.Debug().Err(err).Msg("failed to mirror online set")
		}
	}

	r.gateway.BroadcastAll(ctx, Outbound{Event: EventOnlineUsers, Data: online})
}
