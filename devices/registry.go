// Package devices holds the static registry of device geometry and print
// specs the customizer supports.
package devices

import (
	"fmt"

	"caseforge/core"
	"caseforge/geometry"

	"github.com/sirupsen/logrus"
)

// DefaultHandle is the device the editor falls back to when detection finds
// nothing.
const DefaultHandle = "iphone-15-pro"

const assetBase = "https://assets.caseforge.shop/devices"

// configs is ordered for presentation; lookups go through the index built in
// init. Print specs are 300dpi edge-to-edge targets; bleed pixels are always
// derived from the mm spec, never authored here.
var configs = []core.DeviceConfig{
	{
		Name:         "iPhone 16 Pro Max",
		Handle:       "iphone-16-pro-max",
		CanvasWidth:  460,
		CanvasHeight: 950,
		CornerRadius: 62,
		PrintSpec:    core.PrintSpec{WidthMm: 78, HeightMm: 161, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "iPhone 16 Pro",
		Handle:       "iphone-16-pro",
		CanvasWidth:  450,
		CanvasHeight: 925,
		CornerRadius: 60,
		PrintSpec:    core.PrintSpec{WidthMm: 76, HeightMm: 156, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "iPhone 16",
		Handle:       "iphone-16",
		CanvasWidth:  450,
		CanvasHeight: 920,
		CornerRadius: 60,
		PrintSpec:    core.PrintSpec{WidthMm: 75, HeightMm: 153, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "iPhone 15 Pro",
		Handle:       "iphone-15-pro",
		CanvasWidth:  450,
		CanvasHeight: 920,
		CornerRadius: 60,
		PrintSpec:    core.PrintSpec{WidthMm: 75, HeightMm: 153, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "iPhone 15",
		Handle:       "iphone-15",
		CanvasWidth:  450,
		CanvasHeight: 915,
		CornerRadius: 58,
		PrintSpec:    core.PrintSpec{WidthMm: 75, HeightMm: 152, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "Galaxy S24 Ultra",
		Handle:       "galaxy-s24-ultra",
		CanvasWidth:  470,
		CanvasHeight: 970,
		CornerRadius: 40,
		PrintSpec:    core.PrintSpec{WidthMm: 81, HeightMm: 167, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "Galaxy S24",
		Handle:       "galaxy-s24",
		CanvasWidth:  445,
		CanvasHeight: 905,
		CornerRadius: 44,
		PrintSpec:    core.PrintSpec{WidthMm: 72, HeightMm: 150, DPI: 300},
		BleedMm:      3,
	},
	{
		Name:         "Pixel 9 Pro",
		Handle:       "pixel-9-pro",
		CanvasWidth:  455,
		CanvasHeight: 930,
		CornerRadius: 54,
		PrintSpec:    core.PrintSpec{WidthMm: 76, HeightMm: 155, DPI: 300},
		BleedMm:      3,
	},
}

var byHandle = make(map[string]*core.DeviceConfig, len(configs))

func init() {
	for i := range configs {
		d := &configs[i]
		d.OverlayAssetRef = fmt.Sprintf("%s/%s/overlay.png", assetBase, d.Handle)
		d.MockupMaskAssetRef = fmt.Sprintf("%s/%s/mockup-mask.png", assetBase, d.Handle)
		byHandle[d.Handle] = d
	}
}

// Get returns the config for a device handle.
func Get(handle string) (*core.DeviceConfig, error) {
	if d, ok := byHandle[handle]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("device %q: %w", handle, core.ErrNotFound)
}

// Default returns the fallback device config.
func Default() *core.DeviceConfig {
	return byHandle[DefaultHandle]
}

// All returns every registered config in presentation order.
func All() []core.DeviceConfig {
	out := make([]core.DeviceConfig, len(configs))
	copy(out, configs)
	return out
}

// MaskPath builds the printable-region path for a device in its canvas
// coordinate space.
func MaskPath(d *core.DeviceConfig) *geometry.MaskPath {
	return geometry.RoundedRectPath(float64(d.CanvasWidth), float64(d.CanvasHeight), d.CornerRadius)
}

// Validate checks every registry entry and the detection table. It runs at
// startup and any failure is fatal: a malformed device config must never
// surface as a runtime error during editing.
func Validate() error {
	if _, ok := byHandle[DefaultHandle]; !ok {
		return fmt.Errorf("default device %q is not registered", DefaultHandle)
	}
	for i := range configs {
		d := &configs[i]
		if err := d.Validate(); err != nil {
			return err
		}
		// The derived bleed must stay consistent between the editor mask and
		// the print export.
		want := geometry.BleedPx(d.CanvasWidth, d.PrintSpec.WidthMm, d.BleedMm)
		if d.BleedPx() != want {
			return fmt.Errorf("device %s: inconsistent bleed derivation", d.Handle)
		}
	}
	for _, rule := range detectionRules {
		if _, ok := byHandle[rule.handle]; !ok {
			return fmt.Errorf("detection rule references unknown device %q", rule.handle)
		}
		if len(rule.keywords) == 0 {
			return fmt.Errorf("detection rule for %q has no keywords", rule.handle)
		}
	}
	logrus.WithField("devices", len(configs)).Info("device registry validated")
	return nil
}
