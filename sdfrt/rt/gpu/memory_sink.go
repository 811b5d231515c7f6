package gpu

import (
	"fmt"
)

var _ Sink = (*MemorySink)(nil)

// MemorySink keeps uploaded buffers in host memory. It backs tests and the
// CLI's offline encode, and can simulate allocation failure through Limit.
type MemorySink struct {
	// Limit caps the total reserved bytes across all buffers; 0 disables it.
	Limit uint64

	bufs [SlotCount][2][]byte
	lens [SlotCount][2]int

	Reserves int
	Writes   int
}

func NewMemorySink(limit uint64) *MemorySink {
	return &MemorySink{Limit: limit}
}

func (s *MemorySink) Reserve(slot int, kind BufferKind, size uint64) error {
	if size%4 != 0 {
		size += 4 - (size % 4)
	}
	if uint64(len(s.bufs[slot][kind])) >= size {
		return nil
	}
	if s.Limit > 0 {
		total := size
		for sl := range s.bufs {
			for k := range s.bufs[sl] {
				if sl == slot && k == int(kind) {
					continue
				}
				total += uint64(len(s.bufs[sl][k]))
			}
		}
		if total > s.Limit {
			return fmt.Errorf("memory sink: %d bytes over limit %d", total, s.Limit)
		}
	}
	s.bufs[slot][kind] = make([]byte, size)
	s.lens[slot][kind] = 0
	s.Reserves++
	return nil
}

func (s *MemorySink) Write(slot int, kind BufferKind, data []byte) error {
	buf := s.bufs[slot][kind]
	if len(data) > len(buf) {
		return fmt.Errorf("memory sink: write of %d bytes into %d byte %s buffer", len(data), len(buf), kind)
	}
	copy(buf, data)
	s.lens[slot][kind] = len(data)
	s.Writes++
	return nil
}

func (s *MemorySink) Size(slot int, kind BufferKind) uint64 {
	return uint64(len(s.bufs[slot][kind]))
}

// Bytes returns the bytes written by the last Write to the buffer.
func (s *MemorySink) Bytes(slot int, kind BufferKind) []byte {
	return s.bufs[slot][kind][:s.lens[slot][kind]]
}
