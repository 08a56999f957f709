package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"

	"github.com/google/uuid"
)

// Router is the single authority for resolving which live connections
// receive an outbound event. Messages are persisted before any delivery is
// attempted; delivery failures after a successful persist are logged and
// swallowed, never undoing the durable record.
type Router struct {
	log          *slog.Logger
	presence     *Presence
	typing       *Typing
	rooms        *Rooms
	messages     repositories.IMessageRepository
	users        repositories.IUserRepository
	moderator    *moderation.Moderator
	storeTimeout time.Duration
}

func NewRouter(
	log *slog.Logger,
	presence *Presence,
	typing *Typing,
	rooms *Rooms,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	moderator *moderation.Moderator,
	storeTimeout time.Duration,
) *Router {
	return &Router{
		log:          log,
		presence:     presence,
		typing:       typing,
		rooms:        rooms,
		messages:     messages,
		users:        users,
		moderator:    moderator,
		storeTimeout: storeTimeout,
	}
}

// Bind registers the connection as the user's live channel. Last bind wins.
func (r *Router) Bind(userID string, connID uuid.UUID, sink contract.EventSink) {
	r.presence.Register(userID, connID, sink)
	r.log.Info("user registered", "user", userID, "conn", connID)
}

// JoinRoom subscribes the connection to a room's broadcasts.
func (r *Router) JoinRoom(roomID string, connID uuid.UUID, sink contract.EventSink) {
	r.rooms.Join(roomID, connID, sink)
	r.log.Debug("connection joined room", "room", roomID, "conn", connID)
}

// SendDirectMessage persists the message, then delivers receive_message to
// the receiver if online and message_sent to the originating connection
// regardless of receiver status. Persistence failure aborts before any
// delivery.
func (r *Router) SendDirectMessage(ctx context.Context, senderID, receiverID, body string, origin contract.EventSink) (domain.DirectMessage, error) {
	msg := domain.DirectMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       r.moderator.Censor(body),
		SentAt:     time.Now(),
	}

	if err := r.persist(ctx, func() error { return r.messages.StoreDirect(msg) }); err != nil {
		return domain.DirectMessage{}, err
	}

	if sink, ok := r.presence.Lookup(receiverID); ok {
		if err := sink.Consume(ctx, event.NewReceiveMessage(msg)); err != nil {
			r.log.Warn("direct delivery failed", "receiver", receiverID, "error", err)
		}
	}
	if origin != nil {
		if err := origin.Consume(ctx, event.NewMessageSent(msg)); err != nil {
			r.log.Warn("sender ack failed", "sender", senderID, "error", err)
		}
	}
	return msg, nil
}

// SendRoomMessage resolves the sender's display name, persists, then
// broadcasts an identical room_message to every subscribed connection,
// the sender's own included. An unresolvable sender is a hard failure: a
// room message without an attributable author is meaningless.
func (r *Router) SendRoomMessage(ctx context.Context, senderID, roomID, body string, origin contract.EventSink) (domain.RoomMessage, error) {
	sender, err := r.users.GetByID(senderID)
	if err != nil {
		return domain.RoomMessage{}, fmt.Errorf("%w: %s", errors.ErrUnknownSender, senderID)
	}

	msg := domain.RoomMessage{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: sender.Username,
		Body:       r.moderator.Censor(body),
		SentAt:     time.Now(),
	}

	if err := r.persist(ctx, func() error { return r.messages.StoreRoom(msg) }); err != nil {
		return domain.RoomMessage{}, err
	}

	broadcast := event.NewRoomMessage(msg)
	for _, sink := range r.rooms.Sinks(roomID) {
		if err := sink.Consume(ctx, broadcast); err != nil {
			r.log.Warn("room delivery failed", "room", roomID, "error", err)
		}
	}
	if origin != nil {
		if err := origin.Consume(ctx, event.NewRoomMessageSent(msg)); err != nil {
			r.log.Warn("sender ack failed", "sender", senderID, "error", err)
		}
	}
	return msg, nil
}

// RouteTyping marks the sender typing towards the recipient and notifies the
// recipient's connection if present. Offline recipient is a no-op.
func (r *Router) RouteTyping(ctx context.Context, senderID, recipientID string) {
	r.typing.Set(senderID, recipientID)
	r.notifyTyping(ctx, event.UserTyping, senderID, recipientID)
}

// RouteStopTyping clears the typing mark and notifies the recipient.
func (r *Router) RouteStopTyping(ctx context.Context, senderID, recipientID string) {
	r.typing.Clear(senderID, recipientID)
	r.notifyTyping(ctx, event.UserStoppedTyping, senderID, recipientID)
}

// Disconnect runs the mandatory cleanup for a closed connection: guarded
// presence unregister, typing cleanup with stop notices to every affected
// recipient, and room subscription drop.
func (r *Router) Disconnect(ctx context.Context, userID string, connID uuid.UUID) {
	if userID != "" {
		if r.presence.Unregister(userID, connID) {
			r.log.Info("user unregistered", "user", userID, "conn", connID)
		}
		for _, recipientID := range r.typing.ClearAllForSender(userID) {
			r.notifyTyping(ctx, event.UserStoppedTyping, userID, recipientID)
		}
	}
	r.rooms.DropConnection(connID)
}

func (r *Router) notifyTyping(ctx context.Context, name event.Name, senderID, recipientID string) {
	sink, ok := r.presence.Lookup(recipientID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, event.NewTypingNotice(name, senderID)); err != nil {
		r.log.Debug("typing notice dropped", "recipient", recipientID, "error", err)
	}
}

// persist runs a store operation under the configured timeout so a slow or
// blocked store cannot stall a connection's event processing indefinitely.
// Both a store error and a timeout surface as ErrPersistence.
func (r *Router) persist(ctx context.Context, op func() error) error {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", errors.ErrPersistence, ctx.Err())
	}
}
