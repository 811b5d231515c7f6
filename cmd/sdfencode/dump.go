package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
	"github.com/gekko3d/sdfblend/sdfrt/rt/gpu"
)

// printFrame prints the tables decoded from the packed bytes, i.e. exactly
// what was uploaded.
func printFrame(w io.Writer, fb *gpu.FrameBuffers) {
	fmt.Fprintf(w, "Containers: %d\n", fb.ContainerCount())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tblend\tparent_blend\tparent\tchildren\tshapes\tsmooth\tid")
	for i := 0; i < int(fb.ContainerCount()); i++ {
		c := encode.DecodeContainerRecord(fb.ContainerBytes[i*encode.ContainerRecordSize:])
		smooth := "-"
		if c.SmoothBlend != 0 {
			smooth = fmt.Sprintf("%.3f", c.SmoothFactor)
		}
		id := ""
		if i < len(fb.ContainerIDs) {
			id = fb.ContainerIDs[i].String()
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n", i, c.Blend, c.ParentBlend, c.ParentIndex, c.ChildCount, c.ShapeCount, smooth, id)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nShapes: %d\n", fb.ShapeCount())
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tkind\towner\tposition\tmetadata\tcolor")
	for i := 0; i < int(fb.ShapeCount()); i++ {
		s := encode.DecodeShapeRecord(fb.ShapeBytes[i*encode.ShapeRecordSize:])
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\t%s\t%s\n", i, s.Kind, s.OwnerIndex, vec(s.Position[:]), vec(s.Metadata[:]), vec(s.Color[:]))
	}
	tw.Flush()
}

func vec(v []float32) string {
	s := "("
	for i, f := range v {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%g", f)
	}
	return s + ")"
}
