package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/observability"
)

const sendBufferSize = 32

// Fan-out scopes used for cross-node replication.
const (
	scopeRoom = "room"
	scopeAll  = "all"
)

// Dispatcher routes decoded inbound frames. Implemented by the event Router.
type Dispatcher interface {
	Dispatch(ctx context.Context, client *Client, env Envelope) Outcome
	Disconnect(ctx context.Context, client *Client)
}

// Client is one live websocket connection owned by a verified user.
type Client struct {
	ID     string
	UserID uint

	conn    *websocket.Conn
	send    chan Outbound
	closed  chan struct{}
	once    sync.Once
	gateway *Gateway
}

// Gateway owns the connection and room channel registries and provides the
// send/broadcast primitives. It carries no business logic.
type Gateway struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[uint]map[*Client]struct{}
	joined  map[*Client]map[uint]struct{}

	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

type fanoutEvent struct {
	Source string          `json:"source"`
	Scope  string          `json:"scope"`
	RoomID uint            `json:"room_id,omitempty"`
	Event  EventName       `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

// NewGateway constructs a gateway. Redis and NATS are optional; when present,
// room and global broadcasts are replicated to the other API nodes.
func NewGateway(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) *Gateway {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":events"
		natsSubject = channelBase + ".events"
	}

	return &Gateway{
		clients:      make(map[string]*Client),
		rooms:        make(map[uint]map[*Client]struct{}),
		joined:       make(map[*Client]map[uint]struct{}),
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "gateway").Logger(),
	}
}

// Start launches the cross-node consumers.
func (g *Gateway) Start(ctx context.Context) {
	if g.redis != nil && g.redisChannel != "" {
		go g.consumeRedis(ctx)
	}
	if g.nats != nil && g.natsSubject != "" {
		go g.consumeNATS(ctx)
	}
}

// Serve runs the read loop for an authenticated connection until it closes.
// The dispatcher sees every decoded frame; malformed frames are logged and
// skipped, never surfaced to the client.
func (g *Gateway) Serve(ctx context.Context, conn *websocket.Conn, userID uint, dispatcher Dispatcher) {
	client := &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan Outbound, sendBufferSize),
		closed:  make(chan struct{}),
		gateway: g,
	}

	g.register(client)
	observability.SocketConnections().Inc()

	go client.writer()

	defer func() {
		dispatcher.Disconnect(ctx, client)
		client.close()
		observability.SocketConnections().Dec()
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			g.logger.Debug().Err(err).Str("connection_id", client.ID).Msg("socket read loop ended")
			return
		}
		if env.Event == "" {
			g.logger.Warn().Str("connection_id", client.ID).Msg("dropping frame without event name")
			continue
		}

		outcome := dispatcher.Dispatch(ctx, client, env)
		observability.SocketEvents().WithLabelValues(string(env.Event), string(outcome)).Inc()
	}
}

// JoinRoom subscribes a connection to a room channel.
func (g *Gateway) JoinRoom(client *Client, roomID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[roomID]; !ok {
		g.rooms[roomID] = make(map[*Client]struct{})
	}
	g.rooms[roomID][client] = struct{}{}

	if _, ok := g.joined[client]; !ok {
		g.joined[client] = make(map[uint]struct{})
	}
	g.joined[client][roomID] = struct{}{}

	g.logger.Debug().Uint("room_id", roomID).Uint("user_id", client.UserID).Str("connection_id", client.ID).Msg("joined room channel")
}

// BroadcastRoom fans an event out to every connection joined to the room.
// excludeConnection may be empty. The event is also replicated cross-node.
func (g *Gateway) BroadcastRoom(ctx context.Context, roomID uint, event Outbound, excludeConnection string) {
	start := time.Now()

	g.mu.RLock()
	for client := range g.rooms[roomID] {
		if excludeConnection != "" && client.ID == excludeConnection {
			continue
		}
		client.enqueue(event, g.logger)
	}
	g.mu.RUnlock()

	observability.BroadcastLatency().Observe(time.Since(start).Seconds())
	g.publish(ctx, scopeRoom, roomID, event)
}

// BroadcastAll sends an event to every registered connection on this node and
// replicates it to the other nodes.
func (g *Gateway) BroadcastAll(ctx context.Context, event Outbound) {
	g.mu.RLock()
	for _, client := range g.clients {
		client.enqueue(event, g.logger)
	}
	g.mu.RUnlock()

	g.publish(ctx, scopeAll, 0, event)
}

// SendToConnection delivers an event to one connection. Returns false when
// the connection is unknown.
func (g *Gateway) SendToConnection(connectionID string, event Outbound) bool {
	g.mu.RLock()
	client, ok := g.clients[connectionID]
	g.mu.RUnlock()

	if !ok {
		return false
	}
	client.enqueue(event, g.logger)
	return true
}

// SendToConnections delivers an event to each of the given connections.
func (g *Gateway) SendToConnections(connectionIDs []string, event Outbound) {
	for _, id := range connectionIDs {
		g.SendToConnection(id, event)
	}
}

func (g *Gateway) register(client *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clients[client.ID] = client
	g.logger.Debug().Uint("user_id", client.UserID).Str("connection_id", client.ID).Msg("socket connected")
}

func (g *Gateway) unregister(client *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.clients, client.ID)
	for roomID := range g.joined[client] {
		if members, ok := g.rooms[roomID]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(g.rooms, roomID)
			}
		}
	}
	delete(g.joined, client)
	g.logger.Debug().Uint("user_id", client.UserID).Str("connection_id", client.ID).Msg("socket disconnected")
}

func (g *Gateway) publish(ctx context.Context, scope string, roomID uint, event Outbound) {
	if (g.redis == nil || g.redisChannel == "") && (g.nats == nil || g.natsSubject == "") {
		return
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to marshal event for fan-out")
		return
	}

	payload, err := json.Marshal(fanoutEvent{
		Source: g.nodeID,
		Scope:  scope,
		RoomID: roomID,
		Event:  event.Event,
		Data:   data,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to marshal fan-out envelope")
		return
	}

	if g.redis != nil && g.redisChannel != "" {
		if err := g.redis.Publish(ctx, g.redisChannel, payload).Err(); err != nil {
			g.logger.Warn().Err(err).Msg("failed to publish event to redis")
		}
	}
	if g.nats != nil && g.natsSubject != "" {
		if err := g.nats.Publish(g.natsSubject, payload); err != nil {
			g.logger.Warn().Err(err).Msg("failed to publish event to nats")
		}
	}
}

func (g *Gateway) consumeRedis(ctx context.Context) {
	pubsub := g.redis.Subscribe(ctx, g.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			g.logger.Error().Err(err).Msg("event redis subscription closed")
			return
		}
		g.handleFanout([]byte(msg.Payload))
	}
}

func (g *Gateway) consumeNATS(ctx context.Context) {
	sub, err := g.nats.QueueSubscribe(g.natsSubject, "amity-events", func(msg *nats.Msg) {
		g.handleFanout(msg.Data)
	})
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to subscribe to nats event subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			g.logger.Warn().Err(err).Msg("failed to drain nats event subscription")
		}
	}()
}

func (g *Gateway) handleFanout(data []byte) {
	var event fanoutEvent
	if err := json.Unmarshal(data, &event); err != nil {
		g.logger.Warn().Err(err).Msg("invalid fan-out event")
		return
	}
	if event.Source == g.nodeID {
		return
	}

	outbound := Outbound{Event: event.Event, Data: event.Data}

	g.mu.RLock()
	defer g.mu.RUnlock()

	switch event.Scope {
	case scopeRoom:
		for client := range g.rooms[event.RoomID] {
			client.enqueue(outbound, g.logger)
		}
	case scopeAll:
		for _, client := range g.clients {
			client.enqueue(outbound, g.logger)
		}
	}
}

func (c *Client) enqueue(event Outbound, log zerolog.Logger) {
	select {
	case c.send <- event:
	default:
		log.Warn().Uint("user_id", c.UserID).Str("connection_id", c.ID).Str("event", string(event.Event)).Msg("dropping event for slow client")
	}
}

func (c *Client) writer() {
	defer c.close()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.gateway.logger.Debug().Err(err).Str("connection_id", c.ID).Msg("socket write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.gateway.logger.Debug().Err(err).Str("connection_id", c.ID).Msg("socket ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.closed)
		c.gateway.unregister(c)
		_ = c.conn.Close()
	})
}
