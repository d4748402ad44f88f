package export

import (
	"context"

	"caseforge/editor"
	"caseforge/geometry"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
)

// RenderPrint rasterizes the snapshot at the device's physical print
// dimensions plus a symmetric bleed margin. The output is camera-ready: no
// realistic overlay, and no mask clip, since the bleed intentionally extends
// past the visible region so trimming leaves no unprinted edge.
func (p *Pipeline) RenderPrint(ctx context.Context, snap *editor.Snapshot) ([]byte, error) {
	d := snap.Device
	spec := d.PrintSpec

	printW := geometry.MmToPx(spec.WidthMm, spec.DPI)
	printH := geometry.MmToPx(spec.HeightMm, spec.DPI)
	bleed := geometry.MmToPx(d.BleedMm, spec.DPI)

	totalW := printW + 2*bleed
	totalH := printH + 2*bleed
	dc := gg.NewContext(totalW, totalH)

	if snap.Document.Background != "" {
		dc.SetColor(hexWithAlpha(snap.Document.Background, 1))
		dc.DrawRectangle(0, 0, float64(totalW), float64(totalH))
		dc.Fill()
	}

	// One uniform scalar maps canvas space into print space on both axes;
	// the device config guarantees matching aspect ratios.
	scale := float64(printW) / float64(d.CanvasWidth)
	if err := renderLayers(ctx, dc, snap, scale, float64(bleed)); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"device":   d.Handle,
		"print_px": totalW,
		"bleed_px": bleed,
		"dpi":      spec.DPI,
	}).Debug("print raster rendered")

	return encodePNG(dc.Image())
}

// PrintDimensions reports the final raster size in pixels for a device,
// bleed included.
func PrintDimensions(widthMm, heightMm, bleedMm float64, dpi int) (int, int) {
	return geometry.MmToPx(widthMm, dpi) + 2*geometry.MmToPx(bleedMm, dpi),
		geometry.MmToPx(heightMm, dpi) + 2*geometry.MmToPx(bleedMm, dpi)
}
