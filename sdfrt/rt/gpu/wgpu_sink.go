package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

var _ Sink = (*WgpuSink)(nil)

// WgpuSink uploads records into WebGPU storage buffers, one per slot and
// kind. Buffers are recreated only when they are too small.
type WgpuSink struct {
	Device *wgpu.Device
	Usage  wgpu.BufferUsage

	buffers [SlotCount][2]*wgpu.Buffer
}

func NewWgpuSink(device *wgpu.Device) *WgpuSink {
	return &WgpuSink{
		Device: device,
		Usage:  wgpu.BufferUsageStorage,
	}
}

func (s *WgpuSink) Reserve(slot int, kind BufferKind, size uint64) error {
	if size%4 != 0 {
		size += 4 - (size % 4)
	}

	current := s.buffers[slot][kind]
	if current != nil && current.GetSize() >= size {
		return nil
	}
	if current != nil {
		current.Release()
		s.buffers[slot][kind] = nil
	}

	desc := &wgpu.BufferDescriptor{
		Label:            fmt.Sprintf("%sBuf%d", kind, slot),
		Size:             size,
		Usage:            s.Usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
	buf, err := s.Device.CreateBuffer(desc)
	if err != nil {
		return err
	}
	s.buffers[slot][kind] = buf
	return nil
}

func (s *WgpuSink) Write(slot int, kind BufferKind, data []byte) error {
	buf := s.buffers[slot][kind]
	if buf == nil {
		return fmt.Errorf("%s buffer for slot %d not reserved", kind, slot)
	}
	return s.Device.GetQueue().WriteBuffer(buf, 0, data)
}

func (s *WgpuSink) Size(slot int, kind BufferKind) uint64 {
	if buf := s.buffers[slot][kind]; buf != nil {
		return buf.GetSize()
	}
	return 0
}

// Buffer returns the storage buffer the renderer should bind for a published
// frame's slot.
func (s *WgpuSink) Buffer(slot int, kind BufferKind) *wgpu.Buffer {
	return s.buffers[slot][kind]
}

func (s *WgpuSink) Release() {
	for slot := range s.buffers {
		for kind, buf := range s.buffers[slot] {
			if buf != nil {
				buf.Release()
				s.buffers[slot][kind] = nil
			}
		}
	}
}
