// Package event defines the JSON wire protocol spoken over a connection
// session, in both directions.
package event

import "encoding/json"

type Name string

// Client -> server events.
const (
	Register        Name = "register"
	JoinRoom        Name = "join_room"
	SendMessage     Name = "send_message"
	SendRoomMessage Name = "send_room_message"
	Typing          Name = "typing"
	StopTyping      Name = "stop_typing"
)

// Server -> client events.
const (
	ReceiveMessage    Name = "receive_message"
	MessageSent       Name = "message_sent"
	RoomMessage       Name = "room_message"
	RoomMessageSent   Name = "room_message_sent"
	UserTyping        Name = "user_typing"
	UserStoppedTyping Name = "user_stopped_typing"
	ErrorMessage      Name = "error_message"
)

// Envelope is the outer shape of every frame. Data is decoded lazily into
// the payload matching Event.
type Envelope struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RegisterPayload struct {
	UserID string `json:"userId"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

type SendRoomMessagePayload struct {
	SenderID string `json:"senderId"`
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
}

type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}
