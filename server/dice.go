package server

import (
	"math/rand"
	"sync"
	"time"
)

// Dice rolls one six sided die.
type Dice interface {
	Roll() int
}

type randomDice struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewDice makes dice from a seed, 0 for a random one.
func NewDice(seed int64) Dice {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randomDice{r: rand.New(rand.NewSource(seed))}
}

func (d *randomDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.r.Intn(6) + 1
}

// FixedDice always rolls the same, for tests and demos.
type FixedDice int

func (d FixedDice) Roll() int { return int(d) }
