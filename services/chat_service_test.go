package services

import (
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/runtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRoomRepo struct {
	rooms map[string]domain.Room
}

func newMemoryRoomRepo() *memoryRoomRepo {
	return &memoryRoomRepo{rooms: make(map[string]domain.Room)}
}

func (r *memoryRoomRepo) CreateRoom(name, createdBy string) (domain.Room, error) {
	if _, ok := r.rooms[name]; ok {
		return domain.Room{}, errors.ErrRoomAlreadyExists
	}
	room := domain.Room{ID: uuid.NewString(), Name: name, CreatedAt: time.Now(), CreatedBy: createdBy}
	r.rooms[name] = room
	return room, nil
}

func (r *memoryRoomRepo) GetByID(id string) (domain.Room, error) {
	for _, room := range r.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return domain.Room{}, errors.ErrNotFound
}

func (r *memoryRoomRepo) ListRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

type memoryMessageRepo struct {
	direct []domain.DirectMessage
	room   []domain.RoomMessage
}

func (r *memoryMessageRepo) StoreDirect(m domain.DirectMessage) error {
	r.direct = append(r.direct, m)
	return nil
}

func (r *memoryMessageRepo) Conversation(a, b string) ([]domain.DirectMessage, error) {
	return r.direct, nil
}

func (r *memoryMessageRepo) StoreRoom(m domain.RoomMessage) error {
	r.room = append(r.room, m)
	return nil
}

func (r *memoryMessageRepo) RoomHistory(roomID string) ([]domain.RoomMessage, error) {
	return r.room, nil
}

func TestChatService_Dashboard_Excludes_Caller_And_Flags_Online(t *testing.T) {
	req := require.New(t)
	users := newMemoryUserRepo()
	presence := runtime.NewPresence()
	service := NewChatService(users, newMemoryRoomRepo(), &memoryMessageRepo{}, presence)

	ada, err := users.CreateUser("ada", "", "hash")
	req.NoError(err)
	grace, err := users.CreateUser("grace", "", "hash")
	req.NoError(err)
	_, err = users.CreateUser("linus", "", "hash")
	req.NoError(err)

	// grace is online, linus is not
	presence.Register(grace.ID, uuid.New(), nil)

	view, err := service.Dashboard(ada.ID)
	req.NoError(err)
	req.Len(view.Users, 2)

	byName := make(map[string]domain.UserSummary)
	for _, u := range view.Users {
		byName[u.Username] = u
	}
	req.NotContains(byName, "ada")
	req.True(byName["grace"].Online)
	req.False(byName["linus"].Online)
}

func TestChatService_Conversation_Uses_Wire_Timestamps(t *testing.T) {
	req := require.New(t)
	messages := &memoryMessageRepo{}
	service := NewChatService(newMemoryUserRepo(), newMemoryRoomRepo(), messages, runtime.NewPresence())

	sentAt := time.Date(2026, 8, 31, 14, 3, 5, 123456789, time.Local)
	req.NoError(messages.StoreDirect(domain.DirectMessage{
		ID: "m1", SenderID: "a", ReceiverID: "b", Body: "hi", SentAt: sentAt,
	}))

	view, err := service.Conversation("a", "b")
	req.NoError(err)
	req.Len(view, 1)
	req.Equal("2026-08-31 14:03:05", view[0].Timestamp)
	req.Equal("hi", view[0].Message)
}

func TestChatService_CreateRoom_Propagates_Conflict(t *testing.T) {
	req := require.New(t)
	service := NewChatService(newMemoryUserRepo(), newMemoryRoomRepo(), &memoryMessageRepo{}, runtime.NewPresence())

	room, err := service.CreateRoom("general", "user-1")
	req.NoError(err)
	req.NotEmpty(room.ID)

	_, err = service.CreateRoom("general", "user-2")
	req.ErrorIs(err, errors.ErrRoomAlreadyExists)
}
