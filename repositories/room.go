package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRoomRepository interface {
	CreateRoom(name, createdBy string) (domain.Room, error)
	GetByID(id string) (domain.Room, error)
	ListRooms() ([]domain.Room, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) IRoomRepository {
	return &RoomRepository{db: db}
}

func roomNameKey(name string) []byte { return []byte("room:name:" + name) }
func roomIDKey(id string) []byte     { return []byte("room:id:" + id) }

// CreateRoom persists a room under its unique name. Fails with
// ErrRoomAlreadyExists when the name is taken.
func (r RoomRepository) CreateRoom(name, createdBy string) (domain.Room, error) {
	room := domain.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}

	data, err := json.Marshal(room)
	if err != nil {
		return domain.Room{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := roomNameKey(name)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrRoomAlreadyExists
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(roomIDKey(room.ID), []byte(name))
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r RoomRepository) GetByID(id string) (domain.Room, error) {
	var name string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomIDKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}

	var room domain.Room
	err = r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomNameKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &room)
		})
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r RoomRepository) ListRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:name:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var room domain.Room
				if err := json.Unmarshal(val, &room); err != nil {
					return err
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rooms, err
}
