package performance_test

import (
	"bufio"
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/handler"
	"github.com/amityhq/amity-api/internal/middleware"
	"github.com/amityhq/amity-api/internal/realtime"
)

const perfJWTSecret = "performance-test-secret"

func TestRealtimeWebsocketP95Under250ms(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())

	logger := zerolog.Nop()
	presence := realtime.NewPresence(logger)
	gateway := realtime.NewGateway(nil, "", nil, logger)
	router := realtime.NewRouter(presence, gateway, perfMessageService{}, perfReadService{}, nil, logger)

	realtimeHandler := handler.NewRealtimeHandler(gateway, router, perfJWTSecret, logger)
	realtimeHandler.Register(app.Group("/api/v1/realtime"))

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	wsBase := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/realtime/ws?token="
	clients := 200
	durations := make([]time.Duration, 0, clients)

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	online := []byte(`{"event":"userOnline","data":{}}`)

	for i := 0; i < clients; i++ {
		token := signToken(t, uint(i+1))

		start := time.Now()
		conn, resp, err := dialer.Dial(wsBase+token, http.Header{"X-Correlation-ID": {"perf-" + strconv.Itoa(i)}})
		if err != nil {
			t.Fatalf("websocket dial failed: %v", err)
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		if err := conn.WriteMessage(websocket.TextMessage, online); err != nil {
			t.Fatalf("websocket write failed: %v", err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("websocket read failed: %v", err)
		}
		_ = conn.Close()

		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p95 := percentile(durations, 0.95)

	if p95 > 250*time.Millisecond {
		t.Fatalf("expected websocket P95 <= 250ms, got %s", p95)
	}
}

func TestRealtimeWebsocketRejectsBadToken(t *testing.T) {
	app := fiber.New()

	logger := zerolog.Nop()
	presence := realtime.NewPresence(logger)
	gateway := realtime.NewGateway(nil, "", nil, logger)
	router := realtime.NewRouter(presence, gateway, perfMessageService{}, perfReadService{}, nil, logger)

	realtimeHandler := handler.NewRealtimeHandler(gateway, router, perfJWTSecret, logger)
	realtimeHandler.Register(app.Group("/api/v1/realtime"))

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/realtime/ws?token=not-a-token"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	conn, resp, err := dialer.Dial(url, nil)
	if err == nil {
		_ = conn.Close()
		t.Fatal("expected handshake to fail for an invalid token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %v", resp)
	}
	_ = resp.Body.Close()
}

func TestNotificationSSEP95Under300ms(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())

	notifications := handler.NewNotificationHandler(perfNotificationService{}, zerolog.Nop(), 30*time.Second)

	notificationsGroup := app.Group("/api/v1/notifications", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})
	notifications.Register(notificationsGroup)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	client := &http.Client{Timeout: 5 * time.Second}
	clients := 200
	durations := make([]time.Duration, 0, clients)

	for i := 0; i < clients; i++ {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/notifications/stream", nil)
		if err != nil {
			t.Fatalf("build request failed: %v", err)
		}

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("sse request failed: %v", err)
		}

		reader := bufio.NewReader(resp.Body)
		deadline := time.Now().Add(2 * time.Second)

		for {
			if time.Now().After(deadline) {
				t.Fatalf("sse response timed out for client %d", i)
			}
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("failed to read sse line: %v", err)
			}
			if strings.HasPrefix(line, "data:") {
				durations = append(durations, time.Since(start))
				break
			}
		}

		resp.Body.Close()
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p95 := percentile(durations, 0.95)

	if p95 > 300*time.Millisecond {
		t.Fatalf("expected SSE P95 <= 300ms, got %s", p95)
	}
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(perfJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func percentile(values []time.Duration, pct float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	index := int(math.Ceil(pct*float64(len(values)))) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(values) {
		index = len(values) - 1
	}
	return values[index]
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

type perfMessageService struct{}

func (perfMessageService) Create(_ context.Context, input dto.MessageCreateInput) (dto.MessageResponse, error) {
	return dto.MessageResponse{ID: 1, RoomID: input.RoomID, SenderID: input.SenderID, Text: input.Text}, nil
}

type perfReadService struct{}

func (perfReadService) MarkRead(context.Context, uint, uint, uint) (time.Time, error) {
	return time.Now().UTC(), nil
}

type perfNotificationService struct{}

func (perfNotificationService) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{ID: 1, UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

func (perfNotificationService) List(context.Context, uint, int, int) ([]dto.NotificationResponse, error) {
	return []dto.NotificationResponse{}, nil
}

func (perfNotificationService) MarkRead(_ context.Context, id, userID uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{ID: id, UserID: userID, Type: "system", Message: "hello", Read: true}, nil
}

func (perfNotificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse, 1)
	ch <- dto.NotificationResponse{ID: 99, UserID: userID, Type: "friend_request", Message: "new request", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	cleanup := func() { close(ch) }
	return ch, cleanup
}

func (perfNotificationService) Start(context.Context) {}
