// Package ws owns the persistent bidirectional channel of one connected
// client: its registration lifecycle, inbound event dispatch, and outbound
// write pump.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Conn is the subset of the websocket connection the session needs, kept as
// an interface so tests can drive a session without a network.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

type Options struct {
	SendBufferSize  int
	RateLimitBurst  int
	RateLimitRefill time.Duration
}

// Session is one live connection. It starts unidentified, binds an identity
// on a register event, and on close runs presence and typing cleanup exactly
// once, whether the close was clean or caused by a transport error.
type Session struct {
	id      uuid.UUID
	conn    Conn
	log     *slog.Logger
	router  contract.IRouter
	limiter *rateLimiter
	send    chan []byte
	done    chan struct{}
	once    sync.Once

	// userID is written only by the read loop; empty until register.
	userID string
}

func NewSession(log *slog.Logger, router contract.IRouter, conn Conn, opts Options) *Session {
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = 64
	}
	id := uuid.New()
	return &Session{
		id:      id,
		conn:    conn,
		log:     log.With("conn", id),
		router:  router,
		limiter: newRateLimiter(opts.RateLimitBurst, opts.RateLimitRefill),
		send:    make(chan []byte, opts.SendBufferSize),
		done:    make(chan struct{}),
	}
}

// NewHandler adapts the session lifecycle to a fiber websocket handler.
func NewHandler(log *slog.Logger, router contract.IRouter, opts Options) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		NewSession(log, router, conn, opts).Run(context.Background())
	}
}

// Consume queues an outbound event for the write pump. It never blocks: a
// full buffer or a closed session is reported as a delivery error and left
// to the router's policy.
func (s *Session) Consume(ctx context.Context, e event.Outbound) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case s.send <- data:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// Run drives the session until the connection drops, then closes it.
func (s *Session) Run(ctx context.Context) {
	go s.writePump()
	s.readLoop(ctx)
	s.close(ctx)
}

func (s *Session) readLoop(ctx context.Context) {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug("read loop ended", "error", err)
			return
		}
		if !s.limiter.allow() {
			s.log.Warn("rate limit exceeded, frame discarded")
			continue
		}
		s.dispatch(ctx, raw)
	}
}

// dispatch decodes one inbound frame and applies it. Events are handled
// strictly in arrival order on this goroutine, so a sender's persist and
// fanout side effects complete before its next event is read.
func (s *Session) dispatch(ctx context.Context, raw []byte) {
	var env event.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.reportError(ctx, fmt.Errorf("invalid frame: %w", err))
		return
	}

	switch env.Event {
	case event.Register:
		s.handleRegister(ctx, env.Data)
	case event.JoinRoom:
		s.handleJoinRoom(ctx, env.Data)
	case event.SendMessage:
		s.handleSendMessage(ctx, env.Data)
	case event.SendRoomMessage:
		s.handleSendRoomMessage(ctx, env.Data)
	case event.Typing:
		s.handleTyping(ctx, env.Data, true)
	case event.StopTyping:
		s.handleTyping(ctx, env.Data, false)
	default:
		s.reportError(ctx, fmt.Errorf("unknown event %q", env.Event))
	}
}

func (s *Session) handleRegister(ctx context.Context, data json.RawMessage) {
	var payload event.RegisterPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.UserID == "" {
		s.reportError(ctx, fmt.Errorf("register requires a userId"))
		return
	}
	// Re-registering under a different identity releases the old one first:
	// presence unregister, typing cleanup, room drop. Otherwise the old user
	// would stay bound to this connection with no way to ever evict it.
	if s.userID != "" && s.userID != payload.UserID {
		s.router.Disconnect(ctx, s.userID, s.id)
	}
	s.userID = payload.UserID
	s.router.Bind(s.userID, s.id, s)
}

func (s *Session) handleJoinRoom(ctx context.Context, data json.RawMessage) {
	if !s.requireRegistered(ctx) {
		return
	}
	var payload event.JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		s.reportError(ctx, fmt.Errorf("join_room requires a roomId"))
		return
	}
	s.router.JoinRoom(payload.RoomID, s.id, s)
}

func (s *Session) handleSendMessage(ctx context.Context, data json.RawMessage) {
	if !s.requireRegistered(ctx) {
		return
	}
	var payload event.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == "" {
		s.reportError(ctx, fmt.Errorf("send_message requires a receiverId"))
		return
	}
	if !s.verifySender(ctx, payload.SenderID) {
		return
	}
	if _, err := s.router.SendDirectMessage(ctx, s.userID, payload.ReceiverID, payload.Message, s); err != nil {
		s.reportError(ctx, err)
	}
}

func (s *Session) handleSendRoomMessage(ctx context.Context, data json.RawMessage) {
	if !s.requireRegistered(ctx) {
		return
	}
	var payload event.SendRoomMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		s.reportError(ctx, fmt.Errorf("send_room_message requires a roomId"))
		return
	}
	if !s.verifySender(ctx, payload.SenderID) {
		return
	}
	if _, err := s.router.SendRoomMessage(ctx, s.userID, payload.RoomID, payload.Message, s); err != nil {
		s.reportError(ctx, err)
	}
}

func (s *Session) handleTyping(ctx context.Context, data json.RawMessage, start bool) {
	if !s.requireRegistered(ctx) {
		return
	}
	var payload event.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == "" {
		s.reportError(ctx, fmt.Errorf("typing events require a receiverId"))
		return
	}
	if !s.verifySender(ctx, payload.SenderID) {
		return
	}
	if start {
		s.router.RouteTyping(ctx, s.userID, payload.ReceiverID)
	} else {
		s.router.RouteStopTyping(ctx, s.userID, payload.ReceiverID)
	}
}

func (s *Session) requireRegistered(ctx context.Context) bool {
	if s.userID == "" {
		s.reportError(ctx, errors.ErrNotRegistered)
		return false
	}
	return true
}

// verifySender rejects frames whose senderId claims an identity other than
// the one bound to this connection. An empty senderId defaults to the bound
// identity.
func (s *Session) verifySender(ctx context.Context, senderID string) bool {
	if senderID != "" && senderID != s.userID {
		s.reportError(ctx, errors.ErrSenderMismatch)
		return false
	}
	return true
}

func (s *Session) reportError(ctx context.Context, err error) {
	s.log.Warn("inbound event rejected", "error", err)
	if consumeErr := s.Consume(ctx, event.NewError(err)); consumeErr != nil {
		s.log.Debug("error notice dropped", "error", consumeErr)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("write pump ended", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// close runs the mandatory cleanup exactly once: presence unregister, typing
// cleanup, room drop, then connection teardown.
func (s *Session) close(ctx context.Context) {
	s.once.Do(func() {
		s.router.Disconnect(ctx, s.userID, s.id)
		close(s.done)
		_ = s.conn.Close()
	})
}
