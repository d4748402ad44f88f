package core

import "fmt"

type (
	// PrintSpec is the physical target for the print-ready raster.
	PrintSpec struct {
		WidthMm  float64 `json:"widthMm"`
		HeightMm float64 `json:"heightMm"`
		DPI      int     `json:"dpi"`
	}

	// DeviceConfig holds the per-device geometry and print specification the
	// editor and the export pipeline are constrained to. Entries are immutable
	// and keyed by Handle.
	DeviceConfig struct {
		Name         string  `json:"name"`
		Handle       string  `json:"handle"`
		CanvasWidth  int     `json:"canvasWidth"`
		CanvasHeight int     `json:"canvasHeight"`
		CornerRadius float64 `json:"cornerRadius"`

		// Externally hosted assets for realistic on-device preview rendering.
		OverlayAssetRef    string `json:"overlayAssetRef"`
		MockupMaskAssetRef string `json:"mockupMaskAssetRef"`

		PrintSpec PrintSpec `json:"printSpec"`
		BleedMm   float64   `json:"bleedMm"`
	}
)

// BleedPx is the bleed margin in canvas pixels. It is always derived from the
// physical spec so the canvas-to-mm ratio stays consistent between preview and
// print outputs; it is never hand-authored.
func (d *DeviceConfig) BleedPx() int {
	return int(float64(d.CanvasWidth)/d.PrintSpec.WidthMm*d.BleedMm + 0.5)
}

// Validate reports a configuration error for malformed entries. Registry
// validation runs at startup; a failure here is fatal, never a runtime error
// during editing.
func (d *DeviceConfig) Validate() error {
	if d.Handle == "" {
		return fmt.Errorf("device config has empty handle")
	}
	if d.CanvasWidth <= 0 || d.CanvasHeight <= 0 {
		return fmt.Errorf("device %s: canvas dimensions must be positive, got %dx%d", d.Handle, d.CanvasWidth, d.CanvasHeight)
	}
	if d.PrintSpec.WidthMm <= 0 || d.PrintSpec.HeightMm <= 0 {
		return fmt.Errorf("device %s: print spec dimensions must be positive", d.Handle)
	}
	if d.PrintSpec.DPI <= 0 {
		return fmt.Errorf("device %s: print spec dpi must be positive", d.Handle)
	}
	if d.BleedMm < 0 {
		return fmt.Errorf("device %s: bleed must be non-negative", d.Handle)
	}
	if d.CornerRadius < 0 || d.CornerRadius*2 > float64(d.CanvasWidth) || d.CornerRadius*2 > float64(d.CanvasHeight) {
		return fmt.Errorf("device %s: corner radius %v does not fit canvas", d.Handle, d.CornerRadius)
	}
	return nil
}
