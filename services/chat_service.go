package services

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"chat-relay/runtime"

	"github.com/samber/lo"
)

type IChatService interface {
	Dashboard(callerID string) (DashboardView, error)
	CreateRoom(name, creatorID string) (domain.Room, error)
	Conversation(callerID, receiverID string) ([]DirectMessageView, error)
	RoomHistory(roomID string) ([]RoomMessageView, error)
}

type DashboardView struct {
	PublicRooms []domain.Room        `json:"publicRooms"`
	Users       []domain.UserSummary `json:"users"`
}

type DirectMessageView struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type RoomMessageView struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// ChatService answers the read-side queries of the HTTP surface: dashboard
// listings and message history. Live event routing stays with the Router.
type ChatService struct {
	users    repositories.IUserRepository
	rooms    repositories.IRoomRepository
	messages repositories.IMessageRepository
	presence *runtime.Presence
}

func NewChatService(
	users repositories.IUserRepository,
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	presence *runtime.Presence,
) IChatService {
	return &ChatService{users: users, rooms: rooms, messages: messages, presence: presence}
}

// Dashboard lists every public room and every user except the caller, each
// user carrying its live online flag.
func (s *ChatService) Dashboard(callerID string) (DashboardView, error) {
	rooms, err := s.rooms.ListRooms()
	if err != nil {
		return DashboardView{}, err
	}
	users, err := s.users.ListOthers(callerID)
	if err != nil {
		return DashboardView{}, err
	}

	summaries := lo.Map(users, func(u domain.User, _ int) domain.UserSummary {
		return u.Summary(s.presence.Online(u.ID))
	})
	return DashboardView{PublicRooms: rooms, Users: summaries}, nil
}

func (s *ChatService) CreateRoom(name, creatorID string) (domain.Room, error) {
	return s.rooms.CreateRoom(name, creatorID)
}

func (s *ChatService) Conversation(callerID, receiverID string) ([]DirectMessageView, error) {
	messages, err := s.messages.Conversation(callerID, receiverID)
	if err != nil {
		return nil, err
	}
	return lo.Map(messages, func(m domain.DirectMessage, _ int) DirectMessageView {
		return DirectMessageView{
			ID:         m.ID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Message:    m.Body,
			Timestamp:  domain.Stamp(m.SentAt),
		}
	}), nil
}

func (s *ChatService) RoomHistory(roomID string) ([]RoomMessageView, error) {
	messages, err := s.messages.RoomHistory(roomID)
	if err != nil {
		return nil, err
	}
	return lo.Map(messages, func(m domain.RoomMessage, _ int) RoomMessageView {
		return RoomMessageView{
			ID:         m.ID,
			RoomID:     m.RoomID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Message:    m.Body,
			Timestamp:  domain.Stamp(m.SentAt),
		}
	}), nil
}
