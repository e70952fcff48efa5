package domain

import (
	"fmt"
	"hash/crc32"
)

// IDSet tracks identifiers already taken within one package write.
type IDSet map[string]struct{}

// NewIDSet returns a set seeded with ids; empty strings are skipped.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// maxID is the exclusive upper bound Word accepts for paraId and durableId.
const maxID = 0x80000000

// GenerateID derives a deterministic 8-hex-digit identifier from seed.
// It hashes "seed:counter" with CRC-32 and bumps counter until the value is
// non-zero, below maxID and not already in used. The result is added to used.
func GenerateID(seed string, used IDSet) string {
	for counter := 0; ; counter++ {
		sum := crc32.ChecksumIEEE(fmt.Appendf(nil, "%s:%d", seed, counter))
		if sum == 0 || sum >= maxID {
			continue
		}
		candidate := fmt.Sprintf("%08X", sum)
		if !used.Has(candidate) {
			used.Add(candidate)
			return candidate
		}
	}
}

// ParaIDSeed is the generation seed for a comment's thread paragraph id.
func ParaIDSeed(commentID string) string {
	return "comment-" + commentID
}

// DurableIDSeed is the generation seed for a durable id.
func DurableIDSeed(paraID string) string {
	return "durable-" + paraID
}
