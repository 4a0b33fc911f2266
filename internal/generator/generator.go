package generator

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// IntNSource is all the generator needs from a *rand.Rand.
type IntNSource interface {
	IntN(n int) int
}

// RandomGenerator fills layouts with uniform digits drawn from Rand.
type RandomGenerator struct {
	Rand IntNSource
}

// NewRandomGenerator wires a generator with a PCG source. seed 0 picks a random seed.
func NewRandomGenerator(seed uint64) *RandomGenerator {
	if seed == 0 {
		var b [8]byte
		_, _ = crand.Read(b[:])
		seed = binary.LittleEndian.Uint64(b[:])
	}
	return &RandomGenerator{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}
