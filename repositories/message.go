package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreDirect(message domain.DirectMessage) error
	Conversation(userA, userB string) ([]domain.DirectMessage, error)
	StoreRoom(message domain.RoomMessage) error
	RoomHistory(roomID string) ([]domain.RoomMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) IMessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// directKey formats "dm:{pair}:{timestamp_padded}:{id}" so that:
//  1. One prefix covers the conversation regardless of who sent what.
//  2. 19-digit zero padding keeps lexicographical order chronological,
//     including two messages inside the same display-timestamp second.
//  3. The message id disambiguates same-nanosecond collisions.
func directKey(m domain.DirectMessage) []byte {
	return []byte(fmt.Sprintf("dm:%s:%019d:%s",
		pairKey(m.SenderID, m.ReceiverID), m.SentAt.UnixNano(), m.ID))
}

// pairKey orders the two participant ids so both directions of a
// conversation share a single key prefix.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func roomMessageKey(m domain.RoomMessage) []byte {
	return []byte(fmt.Sprintf("rm:%s:%019d:%s", m.RoomID, m.SentAt.UnixNano(), m.ID))
}

func (r MessageRepository) StoreDirect(message domain.DirectMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(directKey(message), data)
	})
}

// Conversation returns all direct messages between two users in send order.
func (r MessageRepository) Conversation(userA, userB string) ([]domain.DirectMessage, error) {
	prefix := []byte("dm:" + pairKey(userA, userB) + ":")

	var messages []domain.DirectMessage
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if r.limitReached(len(messages)) {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var m domain.DirectMessage
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func (r MessageRepository) StoreRoom(message domain.RoomMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomMessageKey(message), data)
	})
}

// RoomHistory returns all messages posted to a room in send order, sender
// display names included since they are denormalized at write time.
func (r MessageRepository) RoomHistory(roomID string) ([]domain.RoomMessage, error) {
	prefix := []byte("rm:" + roomID + ":")

	var messages []domain.RoomMessage
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if r.limitReached(len(messages)) {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var m domain.RoomMessage
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func (r MessageRepository) limitReached(collected int) bool {
	if r.limitMessages != nil && collected == *r.limitMessages {
		r.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *r.limitMessages))
		return true
	}
	return false
}
