package devices

import (
	"errors"
	"testing"

	"caseforge/core"
	"caseforge/geometry"
)

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("registry validation failed: %v", err)
	}
}

func TestGet(t *testing.T) {
	d, err := Get("iphone-15-pro")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d.Name != "iPhone 15 Pro" {
		t.Errorf("name mismatch: got %q", d.Name)
	}
	if d.CanvasWidth != 450 || d.PrintSpec.WidthMm != 75 || d.BleedMm != 3 {
		t.Errorf("unexpected iphone-15-pro spec: %+v", d)
	}

	_, err = Get("nokia-3310")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown handle: got %v, want ErrNotFound", err)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil")
	}
	if Default().Handle != DefaultHandle {
		t.Errorf("default handle mismatch: got %s", Default().Handle)
	}
}

func TestBleedPxDerivation(t *testing.T) {
	// BleedPx must always equal round(canvasWidth / widthMm * bleedMm),
	// for every registered device.
	for _, d := range All() {
		want := geometry.BleedPx(d.CanvasWidth, d.PrintSpec.WidthMm, d.BleedMm)
		if got := d.BleedPx(); got != want {
			t.Errorf("device %s: BleedPx = %d, want %d", d.Handle, got, want)
		}
	}

	d, _ := Get("iphone-15-pro")
	if got := d.BleedPx(); got != 18 {
		t.Errorf("iphone-15-pro BleedPx = %d, want 18", got)
	}
}

func TestMaskPath(t *testing.T) {
	d, _ := Get("iphone-15-pro")
	p := MaskPath(d)
	if p.Width != 450 || p.Height != 920 || p.Radius != 60 {
		t.Errorf("mask path dims mismatch: %+v", p)
	}
	if !p.Contains(225, 460) {
		t.Error("canvas midpoint must be inside the mask")
	}
	if p.Contains(0, 0) {
		t.Error("square corner must be outside the rounded mask")
	}
}

func TestAllReturnsCopies(t *testing.T) {
	a := All()
	a[0].CanvasWidth = -1
	if All()[0].CanvasWidth == -1 {
		t.Error("All must not expose the registry's backing slice")
	}
}
