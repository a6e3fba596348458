package machi

import (
	"fmt"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func enter(id string) Action {
	return Action{Type: UserEntered, User: User{ID: id}, At: t0}
}

func exit(id string) Action {
	return Action{Type: UserExit, User: User{ID: id}, At: t0}
}

func roll(id string, n int) Action {
	return Action{Type: Roll, User: User{ID: id}, Roll: n, At: t0}
}

func TestNewGame(t *testing.T) {
	s := NewGame(t0)
	if len(s.Users) != 0 {
		t.Errorf("users: %v", s.Users)
	}
	if len(s.Log) != 1 || s.Log[0].Message != "Game Created!" {
		t.Errorf("log: %v", s.Log)
	}
	if s.Log[0].At != t0.UnixMilli() {
		t.Errorf("log time: %d", s.Log[0].At)
	}
	if len(s.UserInventories) != 0 {
		t.Errorf("inventories: %v", s.UserInventories)
	}
	if s.RolledNumber != nil {
		t.Errorf("rolled: %d", *s.RolledNumber)
	}
}

func TestUserEntered(t *testing.T) {
	s := Update(enter("a"), NewGame(t0))

	if len(s.Users) != 1 || s.Users[0].ID != "a" {
		t.Fatalf("users: %v", s.Users)
	}
	inv, ok := s.UserInventories["a"]
	if !ok {
		t.Fatalf("no inventory")
	}
	if inv.Income != 0 {
		t.Errorf("income: %d", inv.Income)
	}
	if n := inv.EstablishmentMap[1][0].Name; n != "Wheat Field" {
		t.Errorf("tier 1: %s", n)
	}
	if n := inv.EstablishmentMap[2][0].Name; n != "Bakery" {
		t.Errorf("tier 2: %s", n)
	}
	if len(inv.LandmarkCards) != 0 {
		t.Errorf("landmarks: %v", inv.LandmarkCards)
	}
	if m := s.Log[0].Message; m != "user a joined 🎉" {
		t.Errorf("log: %s", m)
	}
	if s.RolledNumber != nil {
		t.Errorf("rolled number changed")
	}
}

func TestUserEntered_appends(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(enter("b"), s)
	if len(s.Users) != 2 || s.Users[1].ID != "b" {
		t.Errorf("users: %v", s.Users)
	}
}

func TestUserEntered_duplicate(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(roll("a", 1), s)
	s = Update(enter("a"), s)

	if len(s.Users) != 2 {
		t.Errorf("duplicate join should give two users, got %v", s.Users)
	}
	if len(s.UserInventories) != 1 {
		t.Errorf("inventories: %v", s.UserInventories)
	}
	if inc := s.UserInventories["a"].Income; inc != 0 {
		t.Errorf("inventory should be fresh, income %d", inc)
	}
}

func TestUserExit(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(roll("a", 1), s)
	s = Update(exit("a"), s)

	if len(s.Users) != 0 {
		t.Errorf("users: %v", s.Users)
	}
	inv, ok := s.UserInventories["a"]
	if !ok {
		t.Fatalf("inventory gone")
	}
	if inv.Income != 1 {
		t.Errorf("income: %d", inv.Income)
	}
	if m := s.Log[0].Message; m != "user a left 😢" {
		t.Errorf("log: %s", m)
	}
}

func TestUserExit_removesAll(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(enter("b"), s)
	s = Update(enter("a"), s)
	s = Update(exit("a"), s)
	if len(s.Users) != 1 || s.Users[0].ID != "b" {
		t.Errorf("users: %v", s.Users)
	}
}

func TestUserExit_notPresent(t *testing.T) {
	s := Update(enter("a"), NewGame(t0))
	s1 := Update(exit("x"), s)
	if len(s1.Users) != 1 || s1.Users[0].ID != "a" {
		t.Errorf("users: %v", s1.Users)
	}
	if m := s1.Log[0].Message; m != "user x left 😢" {
		t.Errorf("log: %s", m)
	}
}

func TestUserExit_purge(t *testing.T) {
	rules := DefaultRules()
	rules.Exit = PurgeInventory

	s := NewGame(t0)
	s = rules.Update(enter("a"), s)
	s = rules.Update(exit("a"), s)
	if _, ok := s.UserInventories["a"]; ok {
		t.Errorf("inventory kept")
	}
}

func TestRoll(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(roll("a", 1), s)

	if inc := s.UserInventories["a"].Income; inc != 1 {
		t.Errorf("income: %d", inc)
	}
	if s.RolledNumber == nil || *s.RolledNumber != 1 {
		t.Errorf("rolled: %v", s.RolledNumber)
	}
	if m := s.Log[0].Message; m != "user a rolled a 1" {
		t.Errorf("log: %s", m)
	}
}

func TestRoll_everyonePays(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(enter("b"), s)
	s = Update(roll("a", 2), s)

	for _, id := range []string{"a", "b"} {
		if inc := s.UserInventories[id].Income; inc != 1 {
			t.Errorf("%s income: %d", id, inc)
		}
	}
}

func TestRoll_noMatch(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	for _, n := range []int{3, 4, 5, 6} {
		s = Update(roll("a", n), s)
	}
	if inc := s.UserInventories["a"].Income; inc != 0 {
		t.Errorf("income: %d", inc)
	}
	if *s.RolledNumber != 6 {
		t.Errorf("rolled: %d", *s.RolledNumber)
	}
}

func TestRoll_unknownUser(t *testing.T) {
	s := Update(enter("a"), NewGame(t0))
	s = Update(roll("ghost", 1), s)

	if len(s.UserInventories) != 1 {
		t.Errorf("inventories: %v", s.UserInventories)
	}
	if inc := s.UserInventories["a"].Income; inc != 1 {
		t.Errorf("income: %d", inc)
	}
}

func TestRoll_orderIndependent(t *testing.T) {
	s1 := NewGame(t0)
	s1 = Update(enter("a"), s1)
	s1 = Update(enter("b"), s1)

	s2 := NewGame(t0)
	s2 = Update(enter("b"), s2)
	s2 = Update(enter("a"), s2)

	s1 = Update(roll("a", 1), s1)
	s2 = Update(roll("b", 1), s2)

	for _, id := range []string{"a", "b"} {
		if s1.UserInventories[id].Income != s2.UserInventories[id].Income {
			t.Errorf("%s differs", id)
		}
	}
}

func TestRoll_byType(t *testing.T) {
	rules := DefaultRules()
	rules.Activation = ActivateByType

	s := NewGame(t0)
	s = rules.Update(enter("a"), s)
	s = rules.Update(enter("b"), s)

	cafe := EstablishmentCard{
		Card:              Card{ID: "cafe_0", Name: "Cafe", Earns: 1},
		NumbersToActivate: []int{3},
		Type:              Restaurant,
	}
	inv := s.UserInventories["b"].Copy()
	inv.EstablishmentMap[3] = []EstablishmentCard{cafe}
	s.UserInventories["b"] = inv

	// bakery is secondary, only the roller gets it
	s = rules.Update(roll("a", 2), s)
	if inc := s.UserInventories["a"].Income; inc != 1 {
		t.Errorf("a income: %d", inc)
	}
	if inc := s.UserInventories["b"].Income; inc != 0 {
		t.Errorf("b income: %d", inc)
	}

	// cafe is a restaurant, never on the owner's roll
	s = rules.Update(roll("b", 3), s)
	if inc := s.UserInventories["b"].Income; inc != 0 {
		t.Errorf("b income: %d", inc)
	}
	s = rules.Update(roll("a", 3), s)
	if inc := s.UserInventories["b"].Income; inc != 1 {
		t.Errorf("b income: %d", inc)
	}

	// wheat field is primary, everyone gets it
	s = rules.Update(roll("b", 1), s)
	if inc := s.UserInventories["a"].Income; inc != 2 {
		t.Errorf("a income: %d", inc)
	}
	if inc := s.UserInventories["b"].Income; inc != 2 {
		t.Errorf("b income: %d", inc)
	}
}

func TestRoll_doesNotMutate(t *testing.T) {
	s0 := Update(enter("a"), NewGame(t0))
	log0 := s0.Log[0]

	s1 := Update(roll("a", 1), s0)
	if s0.UserInventories["a"].Income != 0 {
		t.Errorf("input income changed")
	}
	if s0.RolledNumber != nil {
		t.Errorf("input rolled number changed")
	}
	if s0.Log[0] != log0 {
		t.Errorf("input log changed")
	}
	if s1.UserInventories["a"].Income != 1 {
		t.Errorf("output income: %d", s1.UserInventories["a"].Income)
	}
}

func TestInventories_notShared(t *testing.T) {
	s := NewGame(t0)
	s = Update(enter("a"), s)
	s = Update(enter("b"), s)

	a := s.UserInventories["a"]
	a.EstablishmentMap[1][0].Earns = 100

	if s.UserInventories["b"].EstablishmentMap[1][0].Earns != 1 {
		t.Errorf("starting set is shared")
	}
}

func TestBuild_noop(t *testing.T) {
	s := Update(enter("a"), NewGame(t0))
	s1 := Update(Action{Type: Build, User: User{ID: "a"}, BuildingID: "cafe", At: t0}, s)
	if len(s1.Log) != len(s.Log) || s1.Log[0] != s.Log[0] {
		t.Errorf("log changed: %v", s1.Log)
	}
	if s1.UserInventories["a"].Income != 0 {
		t.Errorf("income changed")
	}
}

func TestUnknown_noop(t *testing.T) {
	s := Update(enter("a"), NewGame(t0))
	s1 := Update(Action{Type: "dance", User: User{ID: "a"}, At: t0}, s)
	if len(s1.Log) != len(s.Log) || s1.Log[0] != s.Log[0] {
		t.Errorf("log changed: %v", s1.Log)
	}
	if len(s1.Users) != 1 {
		t.Errorf("users changed")
	}
}

func TestUnknown_rejectLogs(t *testing.T) {
	rules := DefaultRules()
	rules.RejectUnknown = true

	s := rules.Update(enter("a"), NewGame(t0))
	s = rules.Update(Action{Type: "dance", User: User{ID: "a"}, At: t0}, s)
	if m := s.Log[0].Message; m != "user a tried dance" {
		t.Errorf("log: %s", m)
	}
}

func TestLog_cap(t *testing.T) {
	s := NewGame(t0)
	for i := 0; i < 6; i++ {
		s = Update(enter(fmt.Sprintf("u%d", i)), s)

		want := i + 2
		if want > MaxLogSize {
			want = MaxLogSize
		}
		if len(s.Log) != want {
			t.Errorf("step %d: log length %d", i, len(s.Log))
		}
	}
	if m := s.Log[0].Message; m != "user u5 joined 🎉" {
		t.Errorf("newest: %s", m)
	}
	if m := s.Log[3].Message; m != "user u2 joined 🎉" {
		t.Errorf("oldest: %s", m)
	}
}
