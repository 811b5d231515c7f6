package gpu

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
)

func shapeRecords(n int) []encode.ShapeRecord {
	out := make([]encode.ShapeRecord, n)
	for i := range out {
		out[i].Metadata = mgl32.Vec3{float32(i), 0, 0}
		out[i].OwnerIndex = uint32(i % 3)
	}
	return out
}

func containerRecords(n int) []encode.ContainerRecord {
	out := make([]encode.ContainerRecord, n)
	for i := range out {
		out[i].ShapeCount = uint32(i)
	}
	return out
}

func publishFrame(t *testing.T, m *BufferManager, shapes []encode.ShapeRecord, containers []encode.ContainerRecord) *FrameBuffers {
	t.Helper()
	require.NoError(t, m.UploadContainers(append(m.ContainerScratch(), containers...), nil))
	require.NoError(t, m.UploadShapes(append(m.ShapeScratch(), shapes...)))
	fb, err := m.Publish()
	require.NoError(t, err)
	return fb
}

func TestDefaultCapacities(t *testing.T) {
	m := NewBufferManager(nil, Limits{})
	assert.Equal(t, 50, m.Capacity(ShapeBuffer))
	assert.Equal(t, 25, m.Capacity(ContainerBuffer))
	assert.Nil(t, m.Front())
}

func TestEnsureCapacityGrowsOnce(t *testing.T) {
	m := NewBufferManager(nil, Limits{InitialShapes: 4, InitialContainers: 2})

	grew, err := m.EnsureCapacity(ShapeBuffer, 3)
	require.NoError(t, err)
	assert.False(t, grew)

	grew, err = m.EnsureCapacity(ShapeBuffer, 13)
	require.NoError(t, err)
	assert.True(t, grew)
	assert.Equal(t, 16, m.Capacity(ShapeBuffer))
	assert.Equal(t, 1, m.Stats().ShapeGrowths)

	// Never shrinks.
	grew, err = m.EnsureCapacity(ShapeBuffer, 1)
	require.NoError(t, err)
	assert.False(t, grew)
	assert.Equal(t, 16, m.Capacity(ShapeBuffer))
	assert.Equal(t, 0, m.Stats().ContainerGrowths)
}

func TestEnsureCapacityClampsToLimit(t *testing.T) {
	m := NewBufferManager(nil, Limits{InitialContainers: 4, MaxContainers: 10})

	grew, err := m.EnsureCapacity(ContainerBuffer, 9)
	require.NoError(t, err)
	assert.True(t, grew)
	assert.Equal(t, 10, m.Capacity(ContainerBuffer))

	_, err = m.EnsureCapacity(ContainerBuffer, 11)
	assert.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, 10, m.Capacity(ContainerBuffer))
}

func TestPublishAlternatesSlots(t *testing.T) {
	sink := NewMemorySink(0)
	m := NewBufferManager(sink, Limits{})

	first := publishFrame(t, m, shapeRecords(3), containerRecords(2))
	assert.Equal(t, uint64(1), first.Frame)
	assert.Equal(t, 0, first.Slot)
	assert.Equal(t, uint32(3), first.ShapeCount())
	assert.Equal(t, uint32(2), first.ContainerCount())
	assert.Same(t, first, m.Front())

	second := publishFrame(t, m, shapeRecords(5), containerRecords(1))
	assert.Equal(t, 1, second.Slot)

	// The previous frame's slot is untouched by the second frame.
	assert.Len(t, first.Shapes, 3)
	assert.Equal(t, encode.PackShapes(nil, shapeRecords(3)), sink.Bytes(0, ShapeBuffer))
	assert.Equal(t, encode.PackShapes(nil, shapeRecords(5)), sink.Bytes(1, ShapeBuffer))
	assert.Equal(t, encode.PackContainers(nil, containerRecords(1)), second.ContainerBytes)
}

func TestPublishRequiresBothUploads(t *testing.T) {
	m := NewBufferManager(nil, Limits{})
	require.NoError(t, m.UploadShapes(append(m.ShapeScratch(), shapeRecords(1)...)))
	_, err := m.Publish()
	assert.Error(t, err)
	assert.Nil(t, m.Front())

	m.Discard()
	require.NoError(t, m.UploadContainers(m.ContainerScratch(), nil))
	_, err = m.Publish()
	assert.Error(t, err, "discarded shape upload must not count")
}

func TestUploadOverCapacityFails(t *testing.T) {
	m := NewBufferManager(nil, Limits{InitialShapes: 2})
	err := m.UploadShapes(shapeRecords(3))
	assert.ErrorIs(t, err, ErrCapacityExhausted)
}

func TestSinkFailureKeepsFront(t *testing.T) {
	sink := NewMemorySink(0)
	m := NewBufferManager(sink, Limits{InitialShapes: 2, InitialContainers: 1})
	good := publishFrame(t, m, shapeRecords(2), containerRecords(1))

	// The next slot cannot allocate anything.
	sink.Limit = sink.Size(0, ShapeBuffer) + sink.Size(0, ContainerBuffer)
	_, err := m.EnsureCapacity(ShapeBuffer, 100)
	require.NoError(t, err)
	err = m.UploadShapes(append(m.ShapeScratch(), shapeRecords(100)...))
	require.ErrorIs(t, err, ErrCapacityExhausted)
	m.Discard()

	assert.Same(t, good, m.Front())
	assert.Equal(t, uint32(2), m.Front().ShapeCount())
}

func TestEmptyFramePublishes(t *testing.T) {
	sink := NewMemorySink(0)
	m := NewBufferManager(sink, Limits{})
	fb := publishFrame(t, m, nil, containerRecords(1))
	assert.Equal(t, uint32(0), fb.ShapeCount())
	assert.Empty(t, fb.ShapeBytes)
	assert.Equal(t, uint64(50*encode.ShapeRecordSize), sink.Size(0, ShapeBuffer))
}

func TestReserveUsesCapacity(t *testing.T) {
	sink := NewMemorySink(0)
	m := NewBufferManager(sink, Limits{InitialContainers: 8})
	publishFrame(t, m, nil, containerRecords(3))
	assert.Equal(t, uint64(8*encode.ContainerRecordSize), sink.Size(0, ContainerBuffer))
	assert.Equal(t, uint64(0), sink.Size(1, ContainerBuffer))
}

func TestContainerIDsPublished(t *testing.T) {
	m := NewBufferManager(nil, Limits{})
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	require.NoError(t, m.UploadContainers(append(m.ContainerScratch(), containerRecords(2)...), ids))
	require.NoError(t, m.UploadShapes(m.ShapeScratch()))
	fb, err := m.Publish()
	require.NoError(t, err)
	assert.Equal(t, ids, fb.ContainerIDs)
}

func TestBufferKindStride(t *testing.T) {
	assert.Equal(t, 120, ShapeBuffer.Stride())
	assert.Equal(t, 28, ContainerBuffer.Stride())
	assert.Equal(t, "Shapes", ShapeBuffer.String())
}

func TestRetiredFrames(t *testing.T) {
	m := NewBufferManager(NewMemorySink(0), Limits{})
	assert.True(t, m.Retired(nil))

	first := publishFrame(t, m, shapeRecords(1), containerRecords(1))
	assert.False(t, m.Retired(first))

	// Once a newer frame is front, the next encode reuses first's slot.
	second := publishFrame(t, m, shapeRecords(2), containerRecords(1))
	assert.True(t, m.Retired(first))
	assert.False(t, m.Retired(second))

	third := publishFrame(t, m, shapeRecords(3), containerRecords(1))
	assert.Equal(t, first.Slot, third.Slot)
	assert.True(t, m.Retired(second))
	assert.False(t, m.Retired(third))
}
