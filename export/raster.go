// Package export renders a design snapshot into the two rasters the
// production pipeline consumes: a screen preview and a full-bleed print file.
package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"caseforge/core"
	"caseforge/editor"

	"github.com/fogleman/gg"
)

// ExportArtifact is the pair of rasters produced from one document snapshot.
// Generating both from the same snapshot guarantees visual parity between
// what the customer approved and what gets printed.
type ExportArtifact struct {
	Preview []byte // PNG, canvas dimensions
	Print   []byte // PNG, physical dimensions at DPI plus bleed
}

// Pipeline rasterizes snapshots. Overlays resolves the device's realistic
// overlay asset for preview rendering; print output never uses it.
type Pipeline struct {
	Overlays OverlayProvider
}

func NewPipeline(overlays OverlayProvider) *Pipeline {
	if overlays == nil {
		overlays = NoOverlay{}
	}
	return &Pipeline{Overlays: overlays}
}

// Export renders both rasters from the snapshot.
func (p *Pipeline) Export(ctx context.Context, snap *editor.Snapshot) (*ExportArtifact, error) {
	preview, err := p.RenderPreview(ctx, snap)
	if err != nil {
		return nil, err
	}
	print, err := p.RenderPrint(ctx, snap)
	if err != nil {
		return nil, err
	}
	return &ExportArtifact{Preview: preview, Print: print}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderLayers composites the snapshot's layers bottom to top onto dc.
// Canvas-space coordinates are remapped with the uniform scale and shifted by
// offset pixels on both axes (the bleed margin in print space, zero for
// preview). Canvas and print aspect ratios match by construction of the
// device config, so one scalar serves both axes.
func renderLayers(ctx context.Context, dc *gg.Context, snap *editor.Snapshot, scale, offset float64) error {
	for _, l := range snap.Layers() {
		if err := ctx.Err(); err != nil {
			return err
		}
		px := offset + l.X*scale
		py := offset + l.Y*scale

		switch l.Kind {
		case core.LayerImage:
			src, ok := snap.Assets[l.AssetID]
			if !ok || src == nil {
				return &core.ExportError{LayerID: l.ID, Reason: "asset not resolved"}
			}
			dc.Push()
			dc.RotateAbout(gg.Radians(l.Rotation), px, py)
			sc := l.Scale * scale
			dc.ScaleAbout(sc, sc, px, py)
			dc.DrawImageAnchored(withOpacity(src, l.Opacity), int(px), int(py), 0.5, 0.5)
			dc.Pop()

		case core.LayerText:
			img, err := textImage(l, scale)
			if err != nil {
				return &core.ExportError{LayerID: l.ID, Reason: err.Error()}
			}
			dc.Push()
			dc.RotateAbout(gg.Radians(l.Rotation), px, py)
			dc.DrawImageAnchored(withOpacity(img, l.Opacity), int(px), int(py), 0.5, 0.5)
			dc.Pop()

		case core.LayerShape:
			dc.Push()
			dc.RotateAbout(gg.Radians(l.Rotation), px, py)
			sc := l.Scale * scale
			w, h := l.Width*sc, l.Height*sc
			dc.SetColor(hexWithAlpha(l.Fill, l.Opacity))
			if l.Shape == "ellipse" {
				dc.DrawEllipse(px, py, w/2, h/2)
			} else {
				dc.DrawRectangle(px-w/2, py-h/2, w, h)
			}
			dc.Fill()
			dc.Pop()

		default:
			return &core.ExportError{LayerID: l.ID, Reason: "unknown layer kind"}
		}
	}
	return nil
}

// textImage rasterizes a text layer into its own bitmap so rotation and
// opacity compose the same way they do for image layers. The layer's scale is
// baked into the face size, keeping glyph edges crisp at print resolution.
func textImage(l core.Layer, scale float64) (image.Image, error) {
	size := l.FontSize * l.Scale * scale
	if size <= 0 {
		size = 16 * scale
	}
	face, err := fontFace(size)
	if err != nil {
		return nil, err
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	w, h := measure.MeasureString(l.Text)

	pad := size * 0.5
	tw := int(w+2*pad) + 1
	th := int(h+2*pad) + 1
	dc := gg.NewContext(tw, th)
	dc.SetFontFace(face)
	dc.SetColor(hexWithAlpha(l.Color, 1))
	dc.DrawStringAnchored(l.Text, float64(tw)/2, float64(th)/2, 0.5, 0.5)
	return dc.Image(), nil
}

// withOpacity returns src with its alpha channel scaled. Full opacity returns
// src unchanged.
func withOpacity(src image.Image, opacity float64) image.Image {
	if opacity >= 1 {
		return src
	}
	if opacity < 0 {
		opacity = 0
	}
	b := src.Bounds()
	out := image.NewRGBA(b)
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(out, b, src, b.Min, mask, image.Point{}, draw.Over)
	return out
}

// hexWithAlpha parses a #rrggbb color and applies an opacity multiplier.
// Unparseable or empty values fall back to opaque black.
func hexWithAlpha(hex string, opacity float64) color.Color {
	r, g, b := uint8(0), uint8(0), uint8(0)
	if len(hex) == 7 && hex[0] == '#' {
		var v [3]uint8
		ok := true
		for i := 0; i < 3; i++ {
			hi := unhex(hex[1+2*i])
			lo := unhex(hex[2+2*i])
			if hi < 0 || lo < 0 {
				ok = false
				break
			}
			v[i] = uint8(hi<<4 | lo)
		}
		if ok {
			r, g, b = v[0], v[1], v[2]
		}
	}
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(opacity*255 + 0.5)}
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
