package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies errors a player can correct by sending a different
// request.
type ErrorKind int

const (
	PlacementOutOfBounds ErrorKind = iota + 1
	PlacementConsecutive
	PlacementConnected
	PlacementExisting
	PlacementIllegalWord
	FirstWordTooShort
	FirstWordNotCentered
	TileNotOwned
	SwapRejected
	NotYourTurn
	SessionFull
	SessionUnknown
	MalformedID
	GameOver
	GameNotStarted
	NotAMember
)

var errorKindNames = map[ErrorKind]string{
	PlacementOutOfBounds: "placement_out_of_bounds",
	PlacementConsecutive: "placement_consecutive",
	PlacementConnected:   "placement_connected",
	PlacementExisting:    "placement_existing",
	PlacementIllegalWord: "placement_illegal_word",
	FirstWordTooShort:    "first_word_too_short",
	FirstWordNotCentered: "first_word_not_centered",
	TileNotOwned:         "tile_not_owned",
	SwapRejected:         "swap_rejected",
	NotYourTurn:          "not_your_turn",
	SessionFull:          "session_full",
	SessionUnknown:       "session_unknown",
	MalformedID:          "malformed_id",
	GameOver:             "game_over",
	GameNotStarted:       "game_not_started",
	NotAMember:           "not_a_member",
}

var errorKindMessages = map[ErrorKind]string{
	PlacementOutOfBounds: "tiles must be placed inside the board",
	PlacementConsecutive: "tiles must be placed in one row or column without gaps",
	PlacementConnected:   "tiles must connect to a tile already on the board",
	PlacementExisting:    "a tile is already placed there",
	PlacementIllegalWord: "not in the dictionary",
	FirstWordTooShort:    "the first word must be at least two letters long",
	FirstWordNotCentered: "the first word must cover the center cell",
	TileNotOwned:         "tile is not in your rack",
	SwapRejected:         "those tiles cannot be swapped",
	NotYourTurn:          "it is not your turn",
	SessionFull:          "the game already has all of its players",
	SessionUnknown:       "no such game",
	MalformedID:          "malformed id",
	GameOver:             "the game is over",
	GameNotStarted:       "waiting for all players to join",
	NotAMember:           "you have not joined this game",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range errorKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// UserError is an expected rejection. The engine state is unchanged when one
// is returned.
type UserError struct {
	Kind  ErrorKind `json:"kind"`
	Words []string  `json:"words,omitempty"`
}

func newUserError(kind ErrorKind, words ...string) *UserError {
	return &UserError{Kind: kind, Words: words}
}

// NewUserError builds a UserError for callers outside the engine that
// enforce the same rules, such as turn ownership.
func NewUserError(kind ErrorKind) *UserError {
	return newUserError(kind)
}

func (e *UserError) Error() string {
	msg := errorKindMessages[e.Kind]
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.Words) > 0 {
		return fmt.Sprintf("%s: %s", strings.Join(e.Words, ", "), msg)
	}
	return msg
}

// IsUserError reports whether err wraps a *UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// KindOf returns the ErrorKind of a wrapped *UserError, or 0.
func KindOf(err error) ErrorKind {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return 0
}
