package event

import (
	"chat-relay/domain"
)

// Outbound is a server->client frame before encoding. Data holds the typed
// payload; the session marshals the whole frame as an Envelope.
type Outbound struct {
	Event Name `json:"event"`
	Data  any  `json:"data,omitempty"`
}

type ReceiveMessagePayload struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type MessageSentPayload struct {
	ID         string `json:"id"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type RoomMessagePayload struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type RoomMessageSentPayload struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	Timestamp string `json:"timestamp"`
}

type TypingNoticePayload struct {
	SenderID string `json:"senderId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewReceiveMessage(m domain.DirectMessage) Outbound {
	return Outbound{Event: ReceiveMessage, Data: ReceiveMessagePayload{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Message:   m.Body,
		Timestamp: domain.Stamp(m.SentAt),
	}}
}

func NewMessageSent(m domain.DirectMessage) Outbound {
	return Outbound{Event: MessageSent, Data: MessageSentPayload{
		ID:         m.ID,
		ReceiverID: m.ReceiverID,
		Message:    m.Body,
		Timestamp:  domain.Stamp(m.SentAt),
	}}
}

func NewRoomMessage(m domain.RoomMessage) Outbound {
	return Outbound{Event: RoomMessage, Data: RoomMessagePayload{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Message:    m.Body,
		Timestamp:  domain.Stamp(m.SentAt),
	}}
}

func NewRoomMessageSent(m domain.RoomMessage) Outbound {
	return Outbound{Event: RoomMessageSent, Data: RoomMessageSentPayload{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Timestamp: domain.Stamp(m.SentAt),
	}}
}

func NewTypingNotice(name Name, senderID string) Outbound {
	return Outbound{Event: name, Data: TypingNoticePayload{SenderID: senderID}}
}

func NewError(err error) Outbound {
	return Outbound{Event: ErrorMessage, Data: ErrorPayload{Error: err.Error()}}
}
