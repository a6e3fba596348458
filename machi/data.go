package machi

// MaxLogSize is how many log entries a game keeps, newest first.
const MaxLogSize = 4

// User is someone in the room.
type User struct {
	ID string `json:"id"`
}

// LogEntry is one line of game history.
type LogEntry struct {
	At      int64  `json:"dt"`
	Message string `json:"message"`
}

// ECType says on whose turn an establishment can activate.
type ECType string

const (
	// PrimaryIndustry activates on anyone's turn
	PrimaryIndustry ECType = "PRIMARY_INDUSTRY"
	// SecondaryIndustry activates on the owner's turn only
	SecondaryIndustry ECType = "SECONDARY_INDUSTRY"
	// Restaurant activates on opponents' turns
	Restaurant ECType = "RESTAURANT"
	// MajorEstablishment activates on the owner's turn only
	MajorEstablishment ECType = "MAJOR_ESTABLISHMENT"
)

// Card is the common part of every card.
type Card struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Cost   int    `json:"cost"`
	Earns  int    `json:"earns"`
	Effect string `json:"effect"`
}

// EstablishmentCard pays out when the dice show one of its numbers.
type EstablishmentCard struct {
	Card
	NumbersToActivate []int  `json:"numbersToActivate"`
	Type              ECType `json:"type"`
}

// ActivatesOn tells if a roll hits this card.
func (c EstablishmentCard) ActivatesOn(roll int) bool {
	return intListContains(c.NumbersToActivate, roll)
}

// LandmarkCard is not used by any rule yet.
type LandmarkCard struct {
	Card
	IsActive bool `json:"isActive"`
}

// UserInventory is everything one user owns.
type UserInventory struct {
	EstablishmentMap map[int][]EstablishmentCard `json:"establishmentMap"`
	LandmarkCards    []LandmarkCard              `json:"landmarkCards"`
	Income           int                         `json:"income"`
}

// GameState is the whole of a game. Nothing in here is changed in place by
// Update, a new value comes back every time.
type GameState struct {
	Users           []User                   `json:"users"`
	Log             []LogEntry               `json:"log"`
	UserInventories map[string]UserInventory `json:"userInventories"`
	RolledNumber    *int                     `json:"rolledNumber"`
}

// StartingEstablishments makes the set of cards every user starts with.
func StartingEstablishments() map[int][]EstablishmentCard {
	return map[int][]EstablishmentCard{
		1: {
			{
				Card: Card{
					ID:     "wheat_field_0",
					Name:   "Wheat Field",
					Cost:   0,
					Earns:  1,
					Effect: "Get 1 coin from the bank.",
				},
				NumbersToActivate: []int{1},
				Type:              PrimaryIndustry,
			},
		},
		2: {
			{
				Card: Card{
					ID:     "bakery_1",
					Name:   "Bakery",
					Cost:   0,
					Earns:  1,
					Effect: "Get 1 coin from the bank.",
				},
				NumbersToActivate: []int{2},
				Type:              SecondaryIndustry,
			},
		},
	}
}

// NewInventory is what a user gets on entering.
func NewInventory() UserInventory {
	return UserInventory{
		EstablishmentMap: StartingEstablishments(),
		LandmarkCards:    []LandmarkCard{},
		Income:           0,
	}
}

// Copy makes a deep copy, so that the copy can be changed freely.
func (inv UserInventory) Copy() UserInventory {
	out := UserInventory{
		EstablishmentMap: make(map[int][]EstablishmentCard, len(inv.EstablishmentMap)),
		LandmarkCards:    append([]LandmarkCard{}, inv.LandmarkCards...),
		Income:           inv.Income,
	}
	for tier, cards := range inv.EstablishmentMap {
		cc := make([]EstablishmentCard, len(cards))
		for i, c := range cards {
			c.NumbersToActivate = append([]int{}, c.NumbersToActivate...)
			cc[i] = c
		}
		out.EstablishmentMap[tier] = cc
	}
	return out
}

// FindUser says whether a user with the id is in the game.
func (s GameState) FindUser(id string) bool {
	for _, u := range s.Users {
		if u.ID == id {
			return true
		}
	}
	return false
}
