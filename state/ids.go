package state

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

type IDGenerator interface {
	NewUUID() string
	// NextID returns a positive integer primary key.
	NextID() int64
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewUUID() string {
	return uuid.NewString()
}

func (UUIDGenerator) NextID() int64 {
	id := uuid.New()
	// Drop the sign bit so the key is always positive.
	return int64(binary.BigEndian.Uint64(id[:8]) >> 1)
}

// SequenceGenerator hands out predictable ids, handy in tests.
type SequenceGenerator struct {
	next int64
}

func (s *SequenceGenerator) NewUUID() string {
	s.next++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.next)
}

func (s *SequenceGenerator) NextID() int64 {
	s.next++
	return s.next
}
