package service

import (
	"errors"

	"github.com/wricardo/lastword/game/engine"
)

// Rejection is the payload of a moveRejected event.
type Rejection struct {
	Kind    engine.ErrorKind `json:"error_kind"`
	Message string           `json:"message"`
	Words   []string         `json:"words,omitempty"`
}

// GeneralError is the payload of a generalError event.
type GeneralError struct {
	Message string `json:"message"`
}

// RejectionFor turns an error from a game operation into the event the
// caller should receive. User errors keep their kind; anything else is
// reported as a generic failure.
func RejectionFor(err error) (string, interface{}) {
	var ue *engine.UserError
	if errors.As(err, &ue) {
		return EventMoveRejected, Rejection{Kind: ue.Kind, Message: ue.Error(), Words: ue.Words}
	}
	return EventGeneralError, GeneralError{Message: "request failed"}
}
