package machi

// resolveRoll pays out every card that the roll activates, into a new map.
// Inventories that earn nothing are shared with the input, the rest are
// copied first.
func (r Rules) resolveRoll(roll int, roller string, invs map[string]UserInventory) map[string]UserInventory {
	out := make(map[string]UserInventory, len(invs))
	for userID, inv := range invs {
		earned := 0
		for _, cards := range inv.EstablishmentMap {
			for _, card := range cards {
				if !card.ActivatesOn(roll) {
					continue
				}
				if !r.eligible(card, userID, roller) {
					continue
				}
				earned += card.Earns
			}
		}
		if earned != 0 {
			inv = inv.Copy()
			inv.Income += earned
		}
		out[userID] = inv
	}
	return out
}

func (r Rules) eligible(card EstablishmentCard, owner, roller string) bool {
	if r.Activation != ActivateByType {
		return true
	}
	switch card.Type {
	case PrimaryIndustry:
		return true
	case SecondaryIndustry, MajorEstablishment:
		return owner == roller
	case Restaurant:
		return owner != roller
	}
	return false
}

// Validate checks an action before it is let near the game. Update itself
// takes anything; this is for the host to call.
func Validate(a Action, s GameState) error {
	switch a.Type {
	case Roll:
		if a.Roll < 1 || a.Roll > 6 {
			return ErrBadRoll
		}
	case Build:
		if a.BuildingID == "" {
			return ErrBadRequest
		}
	case UserEntered, UserExit:
		// only the host makes these
		return ErrBadRequest
	default:
		return ErrUnknownAction
	}
	if !s.FindUser(a.User.ID) {
		return ErrNotInRoom
	}
	return nil
}
