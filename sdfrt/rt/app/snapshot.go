package app

import (
	"sync/atomic"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
)

// SceneSnapshot hands the latest tree from an authoring or loader goroutine
// to the frame loop. Published trees are cloned and never mutated afterwards,
// so the encoder always sees a consistent snapshot.
type SceneSnapshot struct {
	latest  atomic.Pointer[core.Container]
	version atomic.Uint64
}

// Publish stores a deep copy of root.
func (s *SceneSnapshot) Publish(root *core.Container) {
	s.latest.Store(root.Clone())
	s.version.Add(1)
}

func (s *SceneSnapshot) Get() *core.Container {
	return s.latest.Load()
}

// Version increases on every Publish.
func (s *SceneSnapshot) Version() uint64 {
	return s.version.Load()
}
