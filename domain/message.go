package domain

import "time"

// StampLayout is the wire format for message timestamps. Fixed width, server
// local time, so plain string comparison sorts chronologically. Sub-second
// ordering is carried by the storage keys, not by this stamp.
const StampLayout = "2006-01-02 15:04:05"

func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// DirectMessage is immutable once created and is persisted before any
// delivery attempt.
type DirectMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
}

// RoomMessage carries the sender display name resolved at write time, so
// history reads never need a join against the user records.
type RoomMessage struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
}
