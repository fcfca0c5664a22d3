package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amityhq/amity-api/internal/dto"
)

type stubMessageService struct {
	created []dto.MessageCreateInput
	err     error
}

func (s *stubMessageService) Create(_ context.Context, input dto.MessageCreateInput) (dto.MessageResponse, error) {
	if s.err != nil {
		return dto.MessageResponse{}, s.err
	}
	s.created = append(s.created, input)
	return dto.MessageResponse{ID: 101, RoomID: input.RoomID, SenderID: input.SenderID, Text: input.Text}, nil
}

type stubReadService struct {
	marked []uint
	err    error
}

func (s *stubReadService) MarkRead(_ context.Context, messageID, _, _ uint) (time.Time, error) {
	if s.err != nil {
		return time.Time{}, s.err
	}
	s.marked = append(s.marked, messageID)
	return time.Now().UTC(), nil
}

type stubTypingRecorder struct {
	calls []bool
}

func (s *stubTypingRecorder) SetTyping(_ context.Context, _, _ uint, typing bool) error {
	s.calls = append(s.calls, typing)
	return nil
}

type stubMirror struct {
	snapshots [][]uint
}

func (s *stubMirror) StoreOnline(_ context.Context, userIDs []uint) error {
	s.snapshots = append(s.snapshots, userIDs)
	return nil
}

type routerFixture struct {
	router   *Router
	presence *Presence
	messages *stubMessageService
	reads    *stubReadService
	typing   *stubTypingRecorder
	mirror   *stubMirror
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	presence := NewPresence(zerolog.Nop())
	gateway := NewGateway(nil, "", nil, zerolog.Nop())
	messages := &stubMessageService{}
	reads := &stubReadService{}
	typing := &stubTypingRecorder{}
	mirror := &stubMirror{}

	router := NewRouter(presence, gateway, messages, reads, typing, zerolog.Nop())
	router.SetMirror(mirror)

	return &routerFixture{
		router:   router,
		presence: presence,
		messages: messages,
		reads:    reads,
		typing:   typing,
		mirror:   mirror,
	}
}

func envelope(t *testing.T, event EventName, payload interface{}) Envelope {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Envelope{Event: event, Data: data}
}

func TestRouterDropsUnknownEvent(t *testing.T) {
	fx := newRouterFixture(t)
	client := &Client{ID: "c1", UserID: 1}

	outcome := fx.router.Dispatch(context.Background(), client, Envelope{Event: "mysteryEvent"})
	require.Equal(t, OutcomeDropped, outcome)
}

func TestRouterUserOnlineMirrorsSortedSet(t *testing.T) {
	fx := newRouterFixture(t)
	fx.presence.AddConnection(9, "pre-existing")

	client := &Client{ID: "c1", UserID: 3}
	outcome := fx.router.Dispatch(context.Background(), client, Envelope{Event: EventUserOnline})

	require.Equal(t, OutcomeOK, outcome)
	require.Equal(t, StatusOnline, fx.presence.Status(3))
	require.Len(t, fx.mirror.snapshots, 1)
	require.Equal(t, []uint{3, 9}, fx.mirror.snapshots[0])
}

func TestRouterUserOfflineIsAuthoritative(t *testing.T) {
	fx := newRouterFixture(t)
	fx.presence.AddConnection(4, "tab-1")
	fx.presence.AddConnection(4, "tab-2")

	client := &Client{ID: "tab-1", UserID: 4}
	outcome := fx.router.Dispatch(context.Background(), client, Envelope{Event: EventUserOffline})

	require.Equal(t, OutcomeOK, outcome)
	require.Equal(t, StatusOffline, fx.presence.Status(4))
	require.Empty(t, fx.presence.Connections(4))
	require.False(t, fx.presence.LastSeen(4).IsZero())
}

func TestRouterDisconnectKeepsOtherTabsOnline(t *testing.T) {
	fx := newRouterFixture(t)
	fx.presence.AddConnection(4, "tab-1")
	fx.presence.AddConnection(4, "tab-2")

	fx.router.Disconnect(context.Background(), &Client{ID: "tab-1", UserID: 4})

	require.Equal(t, StatusOnline, fx.presence.Status(4))
	require.Equal(t, []string{"tab-2"}, fx.presence.Connections(4))
}

func TestRouterSendMessageTrustsAuthenticatedSender(t *testing.T) {
	fx := newRouterFixture(t)
	client := &Client{ID: "c1", UserID: 7}

	env := envelope(t, EventSendMessage, SendMessagePayload{
		RoomID:   12,
		SenderID: 999,
		Text:     "hey",
	})

	outcome := fx.router.Dispatch(context.Background(), client, env)
	require.Equal(t, OutcomeOK, outcome)
	require.Len(t, fx.messages.created, 1)
	require.Equal(t, uint(7), fx.messages.created[0].SenderID)
	require.Equal(t, uint(12), fx.messages.created[0].RoomID)
}

func TestRouterSendMessageFailureSkipsBroadcast(t *testing.T) {
	fx := newRouterFixture(t)
	fx.messages.err = errors.New("room membership required")

	env := envelope(t, EventSendMessage, SendMessagePayload{RoomID: 12, Text: "hey"})
	outcome := fx.router.Dispatch(context.Background(), &Client{ID: "c1", UserID: 7}, env)

	require.Equal(t, OutcomeFailed, outcome)
	require.Empty(t, fx.messages.created)
}

func TestRouterMessageReadValidatesPayload(t *testing.T) {
	fx := newRouterFixture(t)
	client := &Client{ID: "c1", UserID: 7}

	outcome := fx.router.Dispatch(context.Background(), client, envelope(t, EventMessageRead, MessageReadPayload{RoomID: 3}))
	require.Equal(t, OutcomeDropped, outcome)
	require.Empty(t, fx.reads.marked)

	outcome = fx.router.Dispatch(context.Background(), client, envelope(t, EventMessageRead, MessageReadPayload{MessageID: 44, RoomID: 3}))
	require.Equal(t, OutcomeOK, outcome)
	require.Equal(t, []uint{44}, fx.reads.marked)
}

func TestRouterTypingRecordsFlag(t *testing.T) {
	fx := newRouterFixture(t)
	client := &Client{ID: "c1", UserID: 7}

	outcome := fx.router.Dispatch(context.Background(), client, envelope(t, EventIsTyping, TypingPayload{RoomID: 3}))
	require.Equal(t, OutcomeOK, outcome)

	outcome = fx.router.Dispatch(context.Background(), client, envelope(t, EventStopTyping, TypingPayload{RoomID: 3}))
	require.Equal(t, OutcomeOK, outcome)

	require.Equal(t, []bool{true, false}, fx.typing.calls)
}

func TestRouterTypingRejectsMissingRoom(t *testing.T) {
	fx := newRouterFixture(t)

	outcome := fx.router.Dispatch(context.Background(), &Client{ID: "c1", UserID: 7}, envelope(t, EventIsTyping, TypingPayload{}))
	require.Equal(t, OutcomeDropped, outcome)
	require.Empty(t, fx.typing.calls)
}

func TestRouterSignalToOfflineTargetIsDropped(t *testing.T) {
	fx := newRouterFixture(t)
	client := &Client{ID: "c1", UserID: 7}

	env := envelope(t, EventCallUser, SignalPayload{TargetUserID: 55})
	outcome := fx.router.Dispatch(context.Background(), client, env)

	require.Equal(t, OutcomeDropped, outcome)
	require.Equal(t, StatusOffline, fx.presence.Status(7))
}

func TestRouterCallOfferMarksBothPartiesBusy(t *testing.T) {
	fx := newRouterFixture(t)
	fx.presence.AddConnection(7, "caller-conn")
	fx.presence.AddConnection(55, "target-conn")

	client := &Client{ID: "caller-conn", UserID: 7}
	env := envelope(t, EventCallUser, SignalPayload{TargetUserID: 55, Offer: json.RawMessage(`{"sdp":"offer"}`)})

	outcome := fx.router.Dispatch(context.Background(), client, env)
	require.Equal(t, OutcomeOK, outcome)
	require.Equal(t, StatusBusy, fx.presence.Status(7))
	require.Equal(t, StatusBusy, fx.presence.Status(55))
}

func TestRouterICERelayDoesNotTouchStatus(t *testing.T) {
	fx := newRouterFixture(t)
	fx.presence.AddConnection(7, "caller-conn")
	fx.presence.AddConnection(55, "target-conn")

	client := &Client{ID: "caller-conn", UserID: 7}
	env := envelope(t, EventICE, SignalPayload{TargetUserID: 55, Candidate: json.RawMessage(`{"candidate":"c"}`)})

	outcome := fx.router.Dispatch(context.Background(), client, env)
	require.Equal(t, OutcomeOK, outcome)
	require.Equal(t, StatusOnline, fx.presence.Status(7))
	require.Equal(t, StatusOnline, fx.presence.Status(55))
}
