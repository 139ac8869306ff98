package model

import "errors"

type ErrorKind int

const (
	KIND_UNKNOWN ErrorKind = iota
	KIND_NOT_FOUND
	KIND_VALIDATION
	KIND_CONFLICT
	KIND_TURN_VIOLATION
	KIND_DECODE
)

func (k ErrorKind) Name() string {
	switch k {
	case KIND_NOT_FOUND:
		return "NotFound"
	case KIND_VALIDATION:
		return "Validation"
	case KIND_CONFLICT:
		return "Conflict"
	case KIND_TURN_VIOLATION:
		return "TurnViolation"
	case KIND_DECODE:
		return "Decode"
	default:
		return "Unknown"
	}
}

// Error is a failure the boundary reports back to the participant as text.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrGameNotFound      = &Error{KIND_NOT_FOUND, "Game not found"}
	ErrPlayerNotInGame   = &Error{KIND_NOT_FOUND, "Player not in game"}
	ErrPlayerNotFound    = &Error{KIND_NOT_FOUND, "Player not found"}
	ErrRecordingNotFound = &Error{KIND_NOT_FOUND, "Recording not found"}

	ErrOutOfBounds        = &Error{KIND_VALIDATION, "Position out of bounds"}
	ErrInvalidOrientation = &Error{KIND_VALIDATION, "Invalid orientation"}
	ErrInvalidGridSize    = &Error{KIND_VALIDATION, "Invalid grid size (2-10)"}
	ErrInvalidNumPlayers  = &Error{KIND_VALIDATION, "Invalid number of players (2-4)"}
	ErrInvalidPosition    = &Error{KIND_VALIDATION, "Invalid position"}
	ErrMissingGameId      = &Error{KIND_VALIDATION, "Invalid game ID"}

	ErrFenceExists   = &Error{KIND_CONFLICT, "Fence already exists"}
	ErrGameFull      = &Error{KIND_CONFLICT, "Game is full"}
	ErrAlreadyJoined = &Error{KIND_CONFLICT, "Player already in game"}
	ErrGameStarted   = &Error{KIND_CONFLICT, "Game already started"}

	ErrNotYourTurn = &Error{KIND_TURN_VIOLATION, "Not your turn"}
	ErrGameOver    = &Error{KIND_TURN_VIOLATION, "Game is over"}
	ErrNotStarted  = &Error{KIND_TURN_VIOLATION, "Waiting for players"}

	ErrInvalidJSON   = &Error{KIND_DECODE, "Invalid JSON format"}
	ErrUnknownAction = &Error{KIND_DECODE, "Unknown action"}
	ErrRateLimited   = &Error{KIND_VALIDATION, "Too many requests"}
)

// KindOf reports the taxonomy kind of err, KIND_UNKNOWN for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KIND_UNKNOWN
}
