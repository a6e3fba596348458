package machi

import (
	"encoding/json"
	"time"
)

// ActionType tags an Action.
type ActionType string

const (
	UserEntered ActionType = "UserEntered"
	UserExit    ActionType = "UserExit"
	Roll        ActionType = "roll"
	Build       ActionType = "build"
)

// Action is one game event to fold into the state. User and At are set by
// whatever is hosting the game, never by the player.
type Action struct {
	Type       ActionType `json:"type"`
	User       User       `json:"user"`
	Roll       int        `json:"roll,omitempty"`
	BuildingID string     `json:"buildingId,omitempty"`
	At         time.Time  `json:"-"`
}

// PlayerAction is the part of an action a player gets to choose. Roll is a
// pointer so that "roll for me" and "I rolled a 0" are different things.
type PlayerAction struct {
	Type       ActionType `json:"type"`
	Roll       *int       `json:"roll,omitempty"`
	BuildingID string     `json:"buildingId,omitempty"`
}

// ParsePlayerAction reads a player action from JSON.
func ParsePlayerAction(data []byte) (PlayerAction, error) {
	var a PlayerAction
	if err := json.Unmarshal(data, &a); err != nil {
		return a, ErrBadRequest
	}
	if a.Type == "" {
		return a, ErrBadRequest
	}
	return a, nil
}

// WithUser stamps a player action with who did it and when.
func (a PlayerAction) WithUser(u User, at time.Time) Action {
	out := Action{
		Type:       a.Type,
		User:       u,
		BuildingID: a.BuildingID,
		At:         at,
	}
	if a.Roll != nil {
		out.Roll = *a.Roll
	}
	return out
}
