package studio

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Rand is the randomness the engine draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a seeded PCG source so runs with the same seed replay identically.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewIDSource returns the byte stream entity ids are drawn from. It is kept
// apart from Rand so id generation never shifts gameplay rolls.
func NewIDSource(seed uint64) io.Reader {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:], seed)
	binary.LittleEndian.PutUint64(key[8:], seed^0x9e3779b97f4a7c15)
	binary.LittleEndian.PutUint64(key[16:], ^seed)
	return rand.NewChaCha8(key)
}

// restoreIDSeed derives the id stream for a restored state, so a resumed
// studio does not hand out ids already present in its save.
func restoreIDSeed(seed uint64, st State) uint64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	h.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], uint64(st.Stats.PlayedTime))
	h.Write(b[:])
	if len(st.History) > 0 {
		h.Write([]byte(st.History[0].ID))
	}
	return h.Sum64()
}

func (s *Studio) newID() string {
	id, err := uuid.NewRandomFromReader(s.ids)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
