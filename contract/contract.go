package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"

	"github.com/google/uuid"
)

// EventSink is one live outbound channel to a connected client. Consume must
// be safe for concurrent use; a full buffer or closed connection returns an
// error instead of blocking.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// IRouter is the single authority for who receives an outbound event. The
// connection session layer depends on this contract only, never on the
// registries behind it.
//
// Send operations take the originating sink so the confirmation event lands
// on the connection that issued the message, not on whichever connection the
// presence registry happens to hold for the sender at delivery time.
type IRouter interface {
	Bind(userID string, connID uuid.UUID, sink EventSink)
	JoinRoom(roomID string, connID uuid.UUID, sink EventSink)
	SendDirectMessage(ctx context.Context, senderID, receiverID, body string, origin EventSink) (domain.DirectMessage, error)
	SendRoomMessage(ctx context.Context, senderID, roomID, body string, origin EventSink) (domain.RoomMessage, error)
	RouteTyping(ctx context.Context, senderID, recipientID string)
	RouteStopTyping(ctx context.Context, senderID, recipientID string)
	Disconnect(ctx context.Context, userID string, connID uuid.UUID)
}
