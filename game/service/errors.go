package service

import (
	"errors"

	"github.com/wricardo/lastword/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrTooManySessions      = errors.New("too many active sessions")
)

// ErrNotAMember is returned when an identity that never joined a session
// acts on it.
var ErrNotAMember error = engine.NewUserError(engine.NotAMember)
