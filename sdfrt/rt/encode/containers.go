package encode

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
)

// IndexTable records the flat index each container received during one
// container pass. It replaces stashing the index on the node itself.
type IndexTable struct {
	index map[*core.Container]uint32
	ids   []uuid.UUID
}

func newIndexTable(hint int) *IndexTable {
	return &IndexTable{
		index: make(map[*core.Container]uint32, hint),
		ids:   make([]uuid.UUID, 0, hint),
	}
}

func (t *IndexTable) Index(c *core.Container) (uint32, bool) {
	if t == nil {
		return 0, false
	}
	idx, ok := t.index[c]
	return idx, ok
}

// IDs maps flat container index to container ID.
func (t *IndexTable) IDs() []uuid.UUID {
	if t == nil {
		return nil
	}
	return t.ids
}

func (t *IndexTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// EncodeContainers appends one record per container to dst[:0] in pre-order
// and returns the records with the index table the shape pass needs. On
// error the returned slice must not be published.
func EncodeContainers(dst []ContainerRecord, root *core.Container, opts Options) ([]ContainerRecord, *IndexTable, error) {
	dst = dst[:0]
	table := newIndexTable(cap(dst))

	err := walk(root, opts.Order, func(c, parent *core.Container) error {
		if !c.Blend.Valid() || !c.ParentBlend.Valid() {
			return fmt.Errorf("%w: container %q has blend ops %v/%v", ErrInvalidTree, c.Name, c.Blend, c.ParentBlend)
		}

		parentIdx := opts.RootParent
		if parent != nil {
			idx, ok := table.index[parent]
			if !ok {
				return fmt.Errorf("%w: parent of %q not yet encoded", ErrInvalidTree, c.Name)
			}
			parentIdx = idx
		}

		idx := uint32(len(dst))
		table.index[c] = idx
		table.ids = append(table.ids, c.ID)

		rec := ContainerRecord{
			Blend:       c.Blend,
			ParentBlend: c.ParentBlend,
			ChildCount:  uint32(c.LiveChildren()),
			ShapeCount:  uint32(c.LiveShapes()),
			ParentIndex: parentIdx,
		}
		if c.SmoothBlend {
			rec.SmoothBlend = 1
		}
		rec.SmoothFactor = core.ClampSmoothFactor(c.SmoothFactor)

		dst = append(dst, rec)
		return nil
	})
	if err != nil {
		return dst, nil, err
	}
	return dst, table, nil
}
