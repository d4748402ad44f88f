// Package geometry computes the printable clip region and the physical-unit
// conversions shared by the editor and the export pipeline.
package geometry

import (
	"fmt"
	"math"
	"strings"
)

type (
	// Segment is one piece of a closed mask path: a straight edge or a 90
	// degree corner arc.
	Segment struct {
		Kind SegmentKind

		// Line: from (X0,Y0) to (X1,Y1).
		X0, Y0, X1, Y1 float64

		// Arc: centered at (CX,CY) with radius R, sweeping from StartAngle
		// over 90 degrees clockwise. Angles in radians.
		CX, CY, R  float64
		StartAngle float64
	}

	SegmentKind int

	// MaskPath is the closed rounded-rect path bounding the printable region
	// of a device, in canvas coordinates. It serves both as the rendering
	// clip and for geometric containment tests.
	MaskPath struct {
		Width, Height float64
		Radius        float64
		Segments      []Segment
	}
)

const (
	SegmentLine SegmentKind = iota
	SegmentArc
)

// RoundedRectPath builds the closed printable-region path for a canvas of
// w x h with corner radius r. The path starts at (r, 0) and traverses four
// straight edges and four quarter arcs clockwise, closing at the start.
func RoundedRectPath(w, h, r float64) *MaskPath {
	p := &MaskPath{Width: w, Height: h, Radius: r}
	p.Segments = []Segment{
		{Kind: SegmentLine, X0: r, Y0: 0, X1: w - r, Y1: 0},
		{Kind: SegmentArc, CX: w - r, CY: r, R: r, StartAngle: -math.Pi / 2},
		{Kind: SegmentLine, X0: w, Y0: r, X1: w, Y1: h - r},
		{Kind: SegmentArc, CX: w - r, CY: h - r, R: r, StartAngle: 0},
		{Kind: SegmentLine, X0: w - r, Y0: h, X1: r, Y1: h},
		{Kind: SegmentArc, CX: r, CY: h - r, R: r, StartAngle: math.Pi / 2},
		{Kind: SegmentLine, X0: 0, Y0: h - r, X1: 0, Y1: r},
		{Kind: SegmentArc, CX: r, CY: r, R: r, StartAngle: math.Pi},
	}
	return p
}

// Contains reports whether (x, y) lies inside the rounded rectangle,
// boundary included. The region is the full rect minus the four corner
// squares outside their quarter circles.
func (p *MaskPath) Contains(x, y float64) bool {
	if x < 0 || y < 0 || x > p.Width || y > p.Height {
		return false
	}
	r := p.Radius
	// Corner centers; a point in a corner square must fall within radius of
	// its arc center.
	var cx, cy float64
	switch {
	case x < r && y < r:
		cx, cy = r, r
	case x > p.Width-r && y < r:
		cx, cy = p.Width-r, r
	case x > p.Width-r && y > p.Height-r:
		cx, cy = p.Width-r, p.Height-r
	case x < r && y > p.Height-r:
		cx, cy = r, p.Height-r
	default:
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r+1e-9
}

// ContainsRect reports whether all four corners of an axis-aligned rectangle
// lie inside the mask. The editor uses this as a soft warning only; artwork
// may intentionally bleed past the mask.
func (p *MaskPath) ContainsRect(x, y, w, h float64) bool {
	return p.Contains(x, y) && p.Contains(x+w, y) && p.Contains(x, y+h) && p.Contains(x+w, y+h)
}

// SVGPathData renders the path as SVG path data, the form the storefront
// editor consumes as its clip region.
func (p *MaskPath) SVGPathData() string {
	w, h, r := p.Width, p.Height, p.Radius
	var b strings.Builder
	fmt.Fprintf(&b, "M %g 0", r)
	fmt.Fprintf(&b, " L %g 0 A %g %g 0 0 1 %g %g", w-r, r, r, w, r)
	fmt.Fprintf(&b, " L %g %g A %g %g 0 0 1 %g %g", w, h-r, r, r, w-r, h)
	fmt.Fprintf(&b, " L %g %g A %g %g 0 0 1 0 %g", r, h, r, r, h-r)
	fmt.Fprintf(&b, " L 0 %g A %g %g 0 0 1 %g 0", r, r, r, r)
	b.WriteString(" Z")
	return b.String()
}
