package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.Outbound
	fail   error
}

func (s *recordingSink) Consume(ctx context.Context, e event.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) received() []event.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Outbound(nil), s.events...)
}

type fakeMessageRepo struct {
	direct    []domain.DirectMessage
	room      []domain.RoomMessage
	failStore error
}

func (f *fakeMessageRepo) StoreDirect(m domain.DirectMessage) error {
	if f.failStore != nil {
		return f.failStore
	}
	f.direct = append(f.direct, m)
	return nil
}

func (f *fakeMessageRepo) Conversation(a, b string) ([]domain.DirectMessage, error) {
	return f.direct, nil
}

func (f *fakeMessageRepo) StoreRoom(m domain.RoomMessage) error {
	if f.failStore != nil {
		return f.failStore
	}
	f.room = append(f.room, m)
	return nil
}

func (f *fakeMessageRepo) RoomHistory(roomID string) ([]domain.RoomMessage, error) {
	return f.room, nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func (f *fakeUserRepo) CreateUser(username, avatarURL, hash string) (domain.User, error) {
	return domain.User{}, nil
}

func (f *fakeUserRepo) GetByUsername(username string) (domain.User, error) {
	return domain.User{}, errors.ErrNotFound
}

func (f *fakeUserRepo) GetByID(id string) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, errors.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) ListOthers(excludeID string) ([]domain.User, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, messages *fakeMessageRepo, users *fakeUserRepo) *Router {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	moderator, err := moderation.NewModerator(nil, '*')
	require.NoError(t, err)
	return NewRouter(
		log, NewPresence(), NewTyping(), NewRooms(),
		messages, users, &moderator, time.Second,
	)
}

func TestRouter_Direct_Message_Reaches_Both_Connections(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessageRepo{}
	router := newTestRouter(t, messages, &fakeUserRepo{})
	senderID := uuid.NewString()
	receiverID := uuid.NewString()
	senderSink := &recordingSink{}
	receiverSink := &recordingSink{}

	// Given both users online
	router.Bind(senderID, uuid.New(), senderSink)
	router.Bind(receiverID, uuid.New(), receiverSink)

	// When the sender sends a direct message
	msg, err := router.SendDirectMessage(context.Background(), senderID, receiverID, "hi", senderSink)
	req.NoError(err)

	// Then the message is durable
	req.Len(messages.direct, 1)
	req.Equal("hi", messages.direct[0].Body)

	// And the receiver got receive_message with matching id and timestamp
	received := receiverSink.received()
	req.Len(received, 1)
	req.Equal(event.ReceiveMessage, received[0].Event)
	payload := received[0].Data.(event.ReceiveMessagePayload)
	req.Equal(msg.ID, payload.ID)
	req.Equal(senderID, payload.SenderID)
	req.Equal("hi", payload.Message)
	req.Equal(domain.Stamp(msg.SentAt), payload.Timestamp)

	// And the sender got the message_sent confirmation
	acks := senderSink.received()
	req.Len(acks, 1)
	req.Equal(event.MessageSent, acks[0].Event)
	ack := acks[0].Data.(event.MessageSentPayload)
	req.Equal(msg.ID, ack.ID)
	req.Equal(payload.Timestamp, ack.Timestamp)
}

func TestRouter_Direct_Message_Acks_Sender_When_Receiver_Offline(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessageRepo{}
	router := newTestRouter(t, messages, &fakeUserRepo{})
	senderID := uuid.NewString()
	senderSink := &recordingSink{}
	router.Bind(senderID, uuid.New(), senderSink)

	_, err := router.SendDirectMessage(context.Background(), senderID, uuid.NewString(), "hello?", senderSink)

	req.NoError(err)
	req.Len(messages.direct, 1)
	acks := senderSink.received()
	req.Len(acks, 1)
	req.Equal(event.MessageSent, acks[0].Event)
}

func TestRouter_Persistence_Failure_Prevents_Any_Delivery(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessageRepo{failStore: fmt.Errorf("disk on fire")}
	router := newTestRouter(t, messages, &fakeUserRepo{})
	senderID := uuid.NewString()
	receiverID := uuid.NewString()
	senderSink := &recordingSink{}
	receiverSink := &recordingSink{}
	router.Bind(senderID, uuid.New(), senderSink)
	router.Bind(receiverID, uuid.New(), receiverSink)

	_, err := router.SendDirectMessage(context.Background(), senderID, receiverID, "hi", senderSink)

	req.ErrorIs(err, errors.ErrPersistence)
	req.Empty(senderSink.received())
	req.Empty(receiverSink.received())
}

func TestRouter_Delivery_Failure_Does_Not_Undo_Persistence(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessageRepo{}
	router := newTestRouter(t, messages, &fakeUserRepo{})
	senderID := uuid.NewString()
	receiverID := uuid.NewString()
	senderSink := &recordingSink{}
	router.Bind(senderID, uuid.New(), senderSink)
	router.Bind(receiverID, uuid.New(), &recordingSink{fail: errors.ErrSlowConsumer})

	_, err := router.SendDirectMessage(context.Background(), senderID, receiverID, "hi", senderSink)

	// The stale receiver connection is logged and swallowed
	req.NoError(err)
	req.Len(messages.direct, 1)
}

func TestRouter_Room_Broadcast_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessageRepo{}
	senderID := uuid.NewString()
	users := &fakeUserRepo{users: map[string]domain.User{
		senderID: {ID: senderID, Username: "ada"},
	}}
	router := newTestRouter(t, messages, users)
	roomID := uuid.NewString()

	senderSink := &recordingSink{}
	memberSink := &recordingSink{}
	senderConn := uuid.New()
	router.Bind(senderID, senderConn, senderSink)
	router.JoinRoom(roomID, senderConn, senderSink)
	router.JoinRoom(roomID, uuid.New(), memberSink)

	msg, err := router.SendRoomMessage(context.Background(), senderID, roomID, "hello room", senderSink)
	req.NoError(err)
	req.Equal("ada", msg.SenderName)
	req.Len(messages.room, 1)

	// Every subscriber, the sender included, sees the identical broadcast
	memberEvents := memberSink.received()
	req.Len(memberEvents, 1)
	req.Equal(event.RoomMessage, memberEvents[0].Event)

	senderEvents := senderSink.received()
	req.Len(senderEvents, 2)
	req.Equal(memberEvents[0], senderEvents[0])
	req.Equal(event.RoomMessageSent, senderEvents[1].Event)
}

func TestRouter_Ack_Goes_To_The_Issuing_Connection(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t, &fakeMessageRepo{}, &fakeUserRepo{})
	senderID := uuid.NewString()
	issuingSink := &recordingSink{}
	newerSink := &recordingSink{}

	// Given the sender re-registered on a newer connection while the issuing
	// one still has a message in flight
	router.Bind(senderID, uuid.New(), newerSink)

	_, err := router.SendDirectMessage(context.Background(), senderID, uuid.NewString(), "hi", issuingSink)
	req.NoError(err)

	// Then the confirmation lands on the connection that sent the message
	acks := issuingSink.received()
	req.Len(acks, 1)
	req.Equal(event.MessageSent, acks[0].Event)
	req.Empty(newerSink.received())
}

func TestRouter_Room_Message_With_Unknown_Sender_Is_A_Hard_Failure(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessageRepo{}
	router := newTestRouter(t, messages, &fakeUserRepo{})

	_, err := router.SendRoomMessage(context.Background(), uuid.NewString(), uuid.NewString(), "ghost", &recordingSink{})

	req.ErrorIs(err, errors.ErrUnknownSender)
	req.Empty(messages.room)
}

func TestRouter_Typing_Notifies_Online_Recipient(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t, &fakeMessageRepo{}, &fakeUserRepo{})
	senderID := uuid.NewString()
	recipientID := uuid.NewString()
	recipientSink := &recordingSink{}
	router.Bind(recipientID, uuid.New(), recipientSink)

	router.RouteTyping(context.Background(), senderID, recipientID)
	router.RouteStopTyping(context.Background(), senderID, recipientID)

	events := recipientSink.received()
	req.Len(events, 2)
	req.Equal(event.UserTyping, events[0].Event)
	req.Equal(event.UserStoppedTyping, events[1].Event)
}

func TestRouter_Typing_To_Offline_Recipient_Is_A_NoOp(t *testing.T) {
	router := newTestRouter(t, &fakeMessageRepo{}, &fakeUserRepo{})

	router.RouteTyping(context.Background(), uuid.NewString(), uuid.NewString())
	// Nothing to assert beyond "no panic": offline recipients are skipped
}

func TestRouter_Disconnect_Clears_Typing_And_Notifies_Recipients(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t, &fakeMessageRepo{}, &fakeUserRepo{})
	senderID := uuid.NewString()
	recipientID := uuid.NewString()
	senderConn := uuid.New()
	recipientSink := &recordingSink{}

	// Given the sender typing towards an online recipient
	router.Bind(senderID, senderConn, &recordingSink{})
	router.Bind(recipientID, uuid.New(), recipientSink)
	router.RouteTyping(context.Background(), senderID, recipientID)

	// When the sender's connection closes without stop_typing
	router.Disconnect(context.Background(), senderID, senderConn)

	// Then the recipient is told the sender stopped typing
	events := recipientSink.received()
	req.Len(events, 2)
	req.Equal(event.UserStoppedTyping, events[1].Event)
	notice := events[1].Data.(event.TypingNoticePayload)
	req.Equal(senderID, notice.SenderID)
	req.False(router.presence.Online(senderID))
}

func TestRouter_Persist_Times_Out_As_Persistence_Failure(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	moderator, err := moderation.NewModerator(nil, '*')
	req.NoError(err)
	router := NewRouter(
		log, NewPresence(), NewTyping(), NewRooms(),
		&stallingMessageRepo{}, &fakeUserRepo{}, &moderator,
		10*time.Millisecond,
	)

	_, err = router.SendDirectMessage(context.Background(), uuid.NewString(), uuid.NewString(), "slow", nil)

	req.ErrorIs(err, errors.ErrPersistence)
}

type stallingMessageRepo struct{}

func (stallingMessageRepo) StoreDirect(domain.DirectMessage) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func (stallingMessageRepo) Conversation(a, b string) ([]domain.DirectMessage, error) {
	return nil, nil
}

func (stallingMessageRepo) StoreRoom(domain.RoomMessage) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func (stallingMessageRepo) RoomHistory(roomID string) ([]domain.RoomMessage, error) {
	return nil, nil
}
