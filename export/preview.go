package export

import (
	"context"

	"caseforge/devices"
	"caseforge/editor"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
)

// RenderPreview composites the snapshot at canvas dimensions for
// customer-facing display: layers in z-order clipped to the printable mask,
// then the device's realistic overlay on top.
func (p *Pipeline) RenderPreview(ctx context.Context, snap *editor.Snapshot) ([]byte, error) {
	d := snap.Device
	dc := gg.NewContext(d.CanvasWidth, d.CanvasHeight)

	mask := devices.MaskPath(d)
	dc.DrawRoundedRectangle(0, 0, mask.Width, mask.Height, mask.Radius)
	dc.Clip()

	if snap.Document.Background != "" {
		dc.SetColor(hexWithAlpha(snap.Document.Background, 1))
		dc.DrawRectangle(0, 0, mask.Width, mask.Height)
		dc.Fill()
	}

	if err := renderLayers(ctx, dc, snap, 1, 0); err != nil {
		return nil, err
	}
	dc.ResetClip()

	overlay, err := p.Overlays.Overlay(ctx, d.OverlayAssetRef)
	if err != nil {
		// The overlay is cosmetic; a fetch failure degrades the preview but
		// must not fail the export.
		logrus.WithFields(logrus.Fields{"device": d.Handle, "error": err}).Warn("overlay asset unavailable, rendering flat preview")
	} else if overlay != nil {
		ob := overlay.Bounds()
		dc.Push()
		dc.Scale(float64(d.CanvasWidth)/float64(ob.Dx()), float64(d.CanvasHeight)/float64(ob.Dy()))
		dc.DrawImage(overlay, 0, 0)
		dc.Pop()
	}

	return encodePNG(dc.Image())
}
