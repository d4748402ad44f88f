package geometry

import "math"

// MmPerInch converts between the metric print spec and DPI-based pixel
// dimensions.
const MmPerInch = 25.4

// MmToPx converts a physical length to pixels at the given DPI.
func MmToPx(mm float64, dpi int) int {
	return int(math.Round(mm / MmPerInch * float64(dpi)))
}

// BleedPx converts a physical bleed margin into canvas pixels using the
// canvas-to-mm ratio of the device. Callers must pass the device's live
// values; the result is never cached across a changed config.
func BleedPx(canvasWidth int, widthMm, bleedMm float64) int {
	return int(math.Round(float64(canvasWidth) / widthMm * bleedMm))
}
