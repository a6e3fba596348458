package machi

import (
	"fmt"
	"time"
)

// ActivationPolicy decides which cards pay out on a roll.
type ActivationPolicy string

const (
	// ActivateAll pays every matching card of every user, whoever rolled.
	ActivateAll ActivationPolicy = "all"
	// ActivateByType pays cards according to their ECType and who rolled.
	ActivateByType ActivationPolicy = "bytype"
)

// ExitPolicy decides what happens to an inventory when its user leaves.
type ExitPolicy string

const (
	// RetainInventory keeps the inventory, so a user coming back finds it.
	// Entering again still replaces it with a fresh one.
	RetainInventory ExitPolicy = "retain"
	// PurgeInventory drops the inventory with the user.
	PurgeInventory ExitPolicy = "purge"
)

// Rules are the knobs of the reducer.
type Rules struct {
	Activation ActivationPolicy `json:"activation"`
	Exit       ExitPolicy       `json:"exit"`
	// RejectUnknown logs actions that change nothing, instead of ignoring them.
	RejectUnknown bool `json:"rejectUnknown"`
}

func DefaultRules() Rules {
	return Rules{
		Activation: ActivateAll,
		Exit:       RetainInventory,
	}
}

// NewGame is how a fresh game starts out.
func NewGame(at time.Time) GameState {
	return GameState{
		Users:           []User{},
		Log:             addLog(at, "Game Created!", nil),
		UserInventories: map[string]UserInventory{},
		RolledNumber:    nil,
	}
}

// Update applies an action using the default rules.
func Update(action Action, state GameState) GameState {
	return DefaultRules().Update(action, state)
}

// Update computes the next state. It never fails and never changes state,
// anything it does not understand gives back state as it was.
func (r Rules) Update(action Action, state GameState) GameState {
	user := action.User

	switch action.Type {
	case UserEntered:
		invs := copyInventories(state.UserInventories)
		invs[user.ID] = NewInventory()

		users := make([]User, 0, len(state.Users)+1)
		users = append(users, state.Users...)
		users = append(users, user)

		state.Users = users
		state.UserInventories = invs
		state.Log = addLog(action.At, fmt.Sprintf("user %s joined 🎉", user.ID), state.Log)
		return state

	case UserExit:
		state.Users = usersWithout(state.Users, user.ID)
		if r.Exit == PurgeInventory {
			invs := copyInventories(state.UserInventories)
			delete(invs, user.ID)
			state.UserInventories = invs
		}
		state.Log = addLog(action.At, fmt.Sprintf("user %s left 😢", user.ID), state.Log)
		return state

	case Roll:
		roll := action.Roll
		state.UserInventories = r.resolveRoll(roll, user.ID, state.UserInventories)
		state.RolledNumber = &roll
		state.Log = addLog(action.At, fmt.Sprintf("user %s rolled a %d", user.ID, roll), state.Log)
		return state

	case Build:
		// buying is not a thing yet
	}

	if r.RejectUnknown {
		state.Log = addLog(action.At, fmt.Sprintf("user %s tried %s", user.ID, action.Type), state.Log)
	}
	return state
}

func copyInventories(in map[string]UserInventory) map[string]UserInventory {
	out := make(map[string]UserInventory, len(in)+1)
	for id, inv := range in {
		out[id] = inv
	}
	return out
}
