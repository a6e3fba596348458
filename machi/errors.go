package machi

import (
	"errors"

	"github.com/undeconstructed/machi/comms"
)

type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) ErrorCode() string { return e.Code }
func (e *GameError) Error() string     { return e.Msg }

var (
	// ErrBadRoll means a die can't show that
	ErrBadRoll = &GameError{"BADROLL", "roll must be between 1 and 6"}
	// ErrNotInRoom means the user has not entered the game
	ErrNotInRoom = &GameError{"NOTINROOM", "user is not in the room"}
	// ErrUnknownAction is for action types nobody handles
	ErrUnknownAction = &GameError{"UNKNOWNACTION", "unknown action"}
	// ErrBadRequest is for bad requests
	ErrBadRequest = &GameError{"BADREQUEST", "bad request"}
)

// ReError matches error codes to error objects
func ReError(cerr *comms.CommsError) error {
	if cerr == nil {
		return nil
	}

	switch cerr.Code {
	case "BADROLL":
		return ErrBadRoll
	case "NOTINROOM":
		return ErrNotInRoom
	case "UNKNOWNACTION":
		return ErrUnknownAction
	case "BADREQUEST":
		return ErrBadRequest
	default:
		return errors.New(cerr.Error())
	}
}
