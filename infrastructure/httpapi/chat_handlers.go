package httpapi

import (
	stderrors "errors"
	"strings"

	"chat-relay/errors"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	view, err := s.chat.Dashboard(callerID(c))
	if err != nil {
		s.log.Error("dashboard query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "dashboard failed"})
	}
	return c.JSON(view)
}

type createRoomRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateRoom(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room name required"})
	}

	room, err := s.chat.CreateRoom(name, callerID(c))
	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"roomId": room.ID})
	case stderrors.Is(err, errors.ErrRoomAlreadyExists):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		s.log.Error("room creation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "room creation failed"})
	}
}

func (s *Server) handleConversation(c *fiber.Ctx) error {
	receiverID := c.Params("receiverId")
	messages, err := s.chat.Conversation(callerID(c), receiverID)
	if err != nil {
		s.log.Error("conversation query failed", "receiver", receiverID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "history failed"})
	}
	return c.JSON(messages)
}

func (s *Server) handleRoomHistory(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	messages, err := s.chat.RoomHistory(roomID)
	if err != nil {
		s.log.Error("room history query failed", "room", roomID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "history failed"})
	}
	return c.JSON(messages)
}
