package errors

import "fmt"

var (
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrRoomAlreadyExists  = fmt.Errorf("room name already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrPersistence        = fmt.Errorf("persistence failed")
	ErrUnknownSender      = fmt.Errorf("sender identity does not resolve")
	ErrNotRegistered      = fmt.Errorf("connection has no registered identity")
	ErrSenderMismatch     = fmt.Errorf("sender does not match registered identity")
	ErrSlowConsumer       = fmt.Errorf("outbound buffer full")
	ErrConnectionClosed   = fmt.Errorf("connection closed")
)
