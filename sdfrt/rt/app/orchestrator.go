package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gekko3d/sdfblend"
	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
	"github.com/gekko3d/sdfblend/sdfrt/rt/gpu"
)

// Orchestrator runs one encode pass per frame and publishes the result
// through its BufferManager. A failed frame never publishes anything, so the
// renderer keeps drawing the last good frame.
type Orchestrator struct {
	Buffers  *gpu.BufferManager
	Options  encode.Options
	Profiler *Profiler

	log sdfblend.Logger
}

func NewOrchestrator(buffers *gpu.BufferManager, opts encode.Options, log sdfblend.Logger) *Orchestrator {
	if log == nil {
		log = sdfblend.NewNopLogger()
	}
	return &Orchestrator{
		Buffers:  buffers,
		Options:  opts,
		Profiler: NewProfiler(),
		log:      log,
	}
}

// Current returns the last successfully published frame.
func (o *Orchestrator) Current() *gpu.FrameBuffers {
	return o.Buffers.Front()
}

// EncodeFrame flattens root into the back buffers and publishes them.
// Buffers are grown from a counting pre-pass before anything is written, so
// a frame whose tree outgrew the buffers is still encoded in full. On error
// the previous frame stays current.
func (o *Orchestrator) EncodeFrame(root *core.Container) (*gpu.FrameBuffers, error) {
	o.Profiler.BeginFrame()
	fb, err := o.encodeFrame(root)
	if err != nil {
		o.Buffers.Discard()
		o.Profiler.EndFrame(0, false)
		o.log.Warnf("frame skipped, keeping frame %d: %v", frameNumber(o.Buffers.Front()), err)
		return nil, err
	}
	o.Profiler.EndFrame(fb.Frame, true)
	return fb, nil
}

func (o *Orchestrator) encodeFrame(root *core.Container) (*gpu.FrameBuffers, error) {
	p := o.Profiler

	p.BeginScope("count")
	numContainers, numShapes, err := encode.Count(root, o.Options)
	p.EndScope("count")
	if err != nil {
		return nil, err
	}
	p.SetCount("containers", numContainers)
	p.SetCount("shapes", numShapes)

	if err := o.grow(gpu.ContainerBuffer, numContainers); err != nil {
		return nil, err
	}
	if err := o.grow(gpu.ShapeBuffer, numShapes); err != nil {
		return nil, err
	}

	p.BeginScope("encode")
	containers, table, err := encode.EncodeContainers(o.Buffers.ContainerScratch(), root, o.Options)
	if err != nil {
		p.EndScope("encode")
		return nil, err
	}
	shapes, err := encode.EncodeShapes(o.Buffers.ShapeScratch(), root, table, o.Options)
	p.EndScope("encode")
	if err != nil {
		return nil, err
	}
	if len(containers) != numContainers || len(shapes) != numShapes {
		return nil, fmt.Errorf("%w: encoded %d/%d records, counted %d/%d", encode.ErrInvalidTree, len(containers), len(shapes), numContainers, numShapes)
	}

	p.BeginScope("upload")
	defer p.EndScope("upload")
	if err := o.Buffers.UploadContainers(containers, table.IDs()); err != nil {
		return nil, err
	}
	if err := o.Buffers.UploadShapes(shapes); err != nil {
		return nil, err
	}
	fb, err := o.Buffers.Publish()
	if err != nil {
		return nil, err
	}

	if o.log.DebugEnabled() {
		o.log.Debugf("frame %d: %d containers, %d shapes (slot %d)", fb.Frame, fb.ContainerCount(), fb.ShapeCount(), fb.Slot)
	}
	return fb, nil
}

func (o *Orchestrator) grow(kind gpu.BufferKind, n int) error {
	grew, err := o.Buffers.EnsureCapacity(kind, n)
	if err != nil {
		return err
	}
	if grew {
		o.log.Infof("%s buffer grown to %d elements", kind, o.Buffers.Capacity(kind))
	}
	return nil
}

// Run encodes the latest snapshot on every tick until ctx is done. onFrame,
// if set, receives each frame's result; a nil frame means the frame failed
// and Current still holds the last good one. Frames are skipped while no tree
// has been published yet.
func (o *Orchestrator) Run(ctx context.Context, scene *SceneSnapshot, tick <-chan time.Time, onFrame func(*gpu.FrameBuffers, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-tick:
			if !ok {
				return nil
			}
			root := scene.Get()
			if root == nil {
				continue
			}
			fb, err := o.EncodeFrame(root)
			if onFrame != nil {
				onFrame(fb, err)
			}
		}
	}
}

func frameNumber(fb *gpu.FrameBuffers) uint64 {
	if fb == nil {
		return 0
	}
	return fb.Frame
}
