package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
)

// ErrCapacityExhausted is returned when a buffer cannot grow to the size a
// frame needs. The previously published frame stays valid; the caller may
// retry next frame.
var ErrCapacityExhausted = errors.New("buffer capacity exhausted")

type BufferKind int

const (
	ShapeBuffer BufferKind = iota
	ContainerBuffer
)

func (k BufferKind) String() string {
	switch k {
	case ShapeBuffer:
		return "Shapes"
	case ContainerBuffer:
		return "BlendContainers"
	default:
		return fmt.Sprintf("BufferKind(%d)", int(k))
	}
}

// Stride is the size of one record in bytes.
func (k BufferKind) Stride() int {
	if k == ShapeBuffer {
		return encode.ShapeRecordSize
	}
	return encode.ContainerRecordSize
}

// SlotCount is the number of frame slots. The renderer reads slot N-1 while
// slot N is written.
const SlotCount = 2

// Sink is the upload target for packed records, typically GPU storage
// buffers. Each slot/kind pair is an independent buffer.
type Sink interface {
	// Reserve makes the buffer at least size bytes. Contents need not survive.
	Reserve(slot int, kind BufferKind, size uint64) error
	Write(slot int, kind BufferKind, data []byte) error
	Size(slot int, kind BufferKind) uint64
}

type Limits struct {
	InitialShapes     int
	InitialContainers int
	MaxShapes         int
	MaxContainers     int
}

func DefaultLimits() Limits {
	return Limits{
		InitialShapes:     50,
		InitialContainers: 25,
		MaxShapes:         1 << 20,
		MaxContainers:     1 << 16,
	}
}

// FrameBuffers is one published frame. Consumers read only [0, count) of
// each array. The arrays belong to a slot that is rewritten once SlotCount-1
// newer frames have been published; a reader on another goroutine should
// copy what it needs and then check Retired, discarding the copy if it
// reports true.
type FrameBuffers struct {
	Frame          uint64
	Slot           int
	Shapes         []encode.ShapeRecord
	Containers     []encode.ContainerRecord
	ShapeBytes     []byte
	ContainerBytes []byte
	ContainerIDs   []uuid.UUID // flat container index -> container ID
}

func (f *FrameBuffers) ShapeCount() uint32 {
	if f == nil {
		return 0
	}
	return uint32(len(f.Shapes))
}

func (f *FrameBuffers) ContainerCount() uint32 {
	if f == nil {
		return 0
	}
	return uint32(len(f.Containers))
}

type frameSlot struct {
	shapes         []encode.ShapeRecord
	containers     []encode.ContainerRecord
	shapeBytes     []byte
	containerBytes []byte
	ids            []uuid.UUID
	staged         [2]bool
}

type Stats struct {
	ShapeCapacity     int
	ContainerCapacity int
	ShapeGrowths      int
	ContainerGrowths  int
	Published         uint64
}

// BufferManager owns the shape and container arrays and the policy for
// growing them. All methods are meant to be called from the frame loop; only
// Front and Retired may be called from other goroutines.
type BufferManager struct {
	sink     Sink
	limits   Limits
	capacity [2]int
	growths  [2]int
	max      [2]int

	slots [SlotCount]frameSlot
	back  int
	frame uint64

	front atomic.Pointer[FrameBuffers]
}

func NewBufferManager(sink Sink, limits Limits) *BufferManager {
	if sink == nil {
		sink = NewMemorySink(0)
	}
	def := DefaultLimits()
	if limits.InitialShapes <= 0 {
		limits.InitialShapes = def.InitialShapes
	}
	if limits.InitialContainers <= 0 {
		limits.InitialContainers = def.InitialContainers
	}
	if limits.MaxShapes <= 0 {
		limits.MaxShapes = def.MaxShapes
	}
	if limits.MaxContainers <= 0 {
		limits.MaxContainers = def.MaxContainers
	}

	m := &BufferManager{sink: sink, limits: limits}
	m.capacity[ShapeBuffer] = min(limits.InitialShapes, limits.MaxShapes)
	m.capacity[ContainerBuffer] = min(limits.InitialContainers, limits.MaxContainers)
	m.max[ShapeBuffer] = limits.MaxShapes
	m.max[ContainerBuffer] = limits.MaxContainers
	return m
}

func (m *BufferManager) Capacity(kind BufferKind) int {
	return m.capacity[kind]
}

// EnsureCapacity grows the capacity for kind to at least minElements,
// doubling from the current capacity in a single step. Capacity never
// shrinks. Growth drops rather than copies: every frame rewrites its
// contents from scratch.
func (m *BufferManager) EnsureCapacity(kind BufferKind, minElements int) (bool, error) {
	if minElements <= m.capacity[kind] {
		return false, nil
	}
	if minElements > m.max[kind] {
		return false, fmt.Errorf("%w: %s needs %d elements, limit %d", ErrCapacityExhausted, kind, minElements, m.max[kind])
	}

	newCap := max(m.capacity[kind], 1)
	for newCap < minElements {
		newCap *= 2
	}
	newCap = min(newCap, m.max[kind])

	m.capacity[kind] = newCap
	m.growths[kind]++
	return true, nil
}

// ShapeScratch returns the back slot's shape array, emptied, with room for
// the current capacity.
func (m *BufferManager) ShapeScratch() []encode.ShapeRecord {
	s := &m.slots[m.back]
	if cap(s.shapes) < m.capacity[ShapeBuffer] {
		s.shapes = make([]encode.ShapeRecord, 0, m.capacity[ShapeBuffer])
	}
	return s.shapes[:0]
}

// ContainerScratch is ShapeScratch for container records.
func (m *BufferManager) ContainerScratch() []encode.ContainerRecord {
	s := &m.slots[m.back]
	if cap(s.containers) < m.capacity[ContainerBuffer] {
		s.containers = make([]encode.ContainerRecord, 0, m.capacity[ContainerBuffer])
	}
	return s.containers[:0]
}

// UploadShapes packs records into the back slot and writes them to the sink.
// Nothing becomes visible until Publish.
func (m *BufferManager) UploadShapes(records []encode.ShapeRecord) error {
	s := &m.slots[m.back]
	s.staged[ShapeBuffer] = false
	if err := m.checkCount(ShapeBuffer, len(records)); err != nil {
		return err
	}
	s.shapes = records
	s.shapeBytes = encode.PackShapes(s.shapeBytes, records)
	if err := m.write(ShapeBuffer, s.shapeBytes); err != nil {
		return err
	}
	s.staged[ShapeBuffer] = true
	return nil
}

// UploadContainers packs records into the back slot and writes them to the
// sink. ids maps flat index to container ID and may be nil.
func (m *BufferManager) UploadContainers(records []encode.ContainerRecord, ids []uuid.UUID) error {
	s := &m.slots[m.back]
	s.staged[ContainerBuffer] = false
	if err := m.checkCount(ContainerBuffer, len(records)); err != nil {
		return err
	}
	s.containers = records
	s.ids = append(s.ids[:0], ids...)
	s.containerBytes = encode.PackContainers(s.containerBytes, records)
	if err := m.write(ContainerBuffer, s.containerBytes); err != nil {
		return err
	}
	s.staged[ContainerBuffer] = true
	return nil
}

func (m *BufferManager) checkCount(kind BufferKind, n int) error {
	if n > m.capacity[kind] {
		return fmt.Errorf("%w: %d %s records exceed capacity %d", ErrCapacityExhausted, n, kind, m.capacity[kind])
	}
	return nil
}

func (m *BufferManager) write(kind BufferKind, data []byte) error {
	have := m.sink.Size(m.back, kind)
	if have == 0 || have < uint64(len(data)) {
		size := uint64(m.capacity[kind] * kind.Stride())
		if err := m.sink.Reserve(m.back, kind, size); err != nil {
			return fmt.Errorf("%w: reserving %d bytes for %s: %v", ErrCapacityExhausted, size, kind, err)
		}
	}
	if len(data) == 0 {
		return nil
	}
	if err := m.sink.Write(m.back, kind, data); err != nil {
		return fmt.Errorf("writing %s: %w", kind, err)
	}
	return nil
}

// Discard drops anything staged in the back slot.
func (m *BufferManager) Discard() {
	m.slots[m.back].staged = [2]bool{}
}

// Publish makes the back slot the front frame and flips slots. Both arrays
// must have been uploaded since the last Publish.
func (m *BufferManager) Publish() (*FrameBuffers, error) {
	s := &m.slots[m.back]
	if !s.staged[ShapeBuffer] || !s.staged[ContainerBuffer] {
		return nil, fmt.Errorf("publish: frame %d not fully uploaded", m.frame+1)
	}

	m.frame++
	fb := &FrameBuffers{
		Frame:          m.frame,
		Slot:           m.back,
		Shapes:         s.shapes,
		Containers:     s.containers,
		ShapeBytes:     s.shapeBytes,
		ContainerBytes: s.containerBytes,
		ContainerIDs:   s.ids,
	}
	s.staged = [2]bool{}
	m.front.Store(fb)
	m.back = (m.back + 1) % SlotCount
	return fb, nil
}

// Front returns the last published frame, or nil before the first Publish.
// The pointer swap is atomic; the arrays it points to stay intact until the
// frame is retired.
func (m *BufferManager) Front() *FrameBuffers {
	return m.front.Load()
}

// Retired reports whether fb's slot may already be handed out for encoding
// a newer frame, making its arrays unsafe to read.
func (m *BufferManager) Retired(fb *FrameBuffers) bool {
	front := m.front.Load()
	if fb == nil || front == nil {
		return true
	}
	return front.Frame-fb.Frame >= SlotCount-1
}

func (m *BufferManager) Stats() Stats {
	return Stats{
		ShapeCapacity:     m.capacity[ShapeBuffer],
		ContainerCapacity: m.capacity[ContainerBuffer],
		ShapeGrowths:      m.growths[ShapeBuffer],
		ContainerGrowths:  m.growths[ContainerBuffer],
		Published:         m.frame,
	}
}
