// Package httpapi exposes the stateless request/response surface: auth,
// dashboard, room creation, and message history. Live events travel over the
// websocket route, not here.
package httpapi

import (
	"log/slog"

	"chat-relay/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Server struct {
	log  *slog.Logger
	auth services.IAuthService
	chat services.IChatService
	ws   func(*websocket.Conn)
}

func NewServer(log *slog.Logger, auth services.IAuthService, chat services.IChatService, ws func(*websocket.Conn)) *Server {
	return &Server{log: log, auth: auth, chat: chat, ws: ws}
}

// App builds the fiber application with every route mounted. The websocket
// route stays outside the bearer middleware: a connection may stay
// unidentified until its register event.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Post("/signup", s.handleSignup)
	app.Post("/login", s.handleLogin)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.ws))

	authed := app.Group("/", s.requireBearer)
	authed.Get("/dashboard", s.handleDashboard)
	authed.Post("/createroom", s.handleCreateRoom)
	authed.Get("/messages/:receiverId", s.handleConversation)
	authed.Get("/room-messages/:roomId", s.handleRoomHistory)

	return app
}
