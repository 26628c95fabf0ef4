package domain

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Dice is the uniform random source used for shuffles and damage rolls.
type Dice interface {
	// IntN returns a uniform integer in [0, n). n must be > 0.
	IntN(n int) int
}

type lockedDice struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (d *lockedDice) IntN(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.r.IntN(n)
}

// NewDice returns a PCG-backed dice seeded from crypto/rand, safe for concurrent use.
func NewDice() Dice {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return NewSeededDice(uint64(rand.Int64()), uint64(rand.Int64()))
	}
	return NewSeededDice(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]))
}

// NewSeededDice returns a deterministic dice; tests use it to replay a match.
func NewSeededDice(seed1, seed2 uint64) Dice {
	return &lockedDice{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// RollD3 returns a uniform integer in [1, 3].
func RollD3(d Dice) int { return d.IntN(3) + 1 }

// Shuffle performs an in-place Fisher–Yates shuffle.
func Shuffle[T any](d Dice, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := d.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
