package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"caseforge/core"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func newTestSession(t *testing.T) (*Manager, *Session) {
	t.Helper()
	m := NewManager()
	s, err := m.Create("iphone-15-pro")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return m, s
}

func TestCreate_UnknownDevice(t *testing.T) {
	m := NewManager()
	_, err := m.Create("nokia-3310")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestAddLayer(t *testing.T) {
	_, s := newTestSession(t)

	id, err := s.AddLayer(NewLayer{Kind: core.LayerText, Text: "hello", FontSize: 24, Color: "#000000", X: 225, Y: 460})
	if err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}
	if id == "" {
		t.Fatal("empty layer id")
	}
	if s.State() != StateEditing {
		t.Errorf("state = %s, want %s", s.State(), StateEditing)
	}

	doc := s.Document()
	l := doc.LayerByID(id)
	if l == nil {
		t.Fatal("layer not in document")
	}
	if l.Scale != 1 || l.Opacity != 1 {
		t.Errorf("defaults not applied: scale=%v opacity=%v", l.Scale, l.Opacity)
	}
}

func TestAddLayer_ImageRequiresDecodedAsset(t *testing.T) {
	_, s := newTestSession(t)

	_, err := s.AddLayer(NewLayer{Kind: core.LayerImage, AssetID: "missing"})
	if !core.IsValidation(err) {
		t.Errorf("unknown asset: got %v, want validation error", err)
	}

	assetID, err := s.AddImageAsset(pngBytes(t, 10, 10, color.White))
	if err != nil {
		t.Fatalf("AddImageAsset failed: %v", err)
	}
	if _, err := s.AddLayer(NewLayer{Kind: core.LayerImage, AssetID: assetID}); err != nil {
		t.Errorf("AddLayer with decoded asset failed: %v", err)
	}
}

func TestAddImageAsset_RejectsGarbage(t *testing.T) {
	_, s := newTestSession(t)
	if _, err := s.AddImageAsset([]byte("not an image")); !core.IsValidation(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestUpdateLayer_UnknownIDIsNoop(t *testing.T) {
	_, s := newTestSession(t)
	x := 10.0
	// Must not panic or error; async UI events race layer removal.
	s.UpdateLayer("does-not-exist", LayerAttrs{X: &x})
}

func TestUpdateAndRemoveLayer(t *testing.T) {
	_, s := newTestSession(t)
	id, _ := s.AddLayer(NewLayer{Kind: core.LayerShape, Shape: "rect", Width: 50, Height: 50, Fill: "#ff0000"})

	x, rot := 120.0, 45.0
	s.UpdateLayer(id, LayerAttrs{X: &x, Rotation: &rot})
	l := s.Document().LayerByID(id)
	if l.X != 120 || l.Rotation != 45 {
		t.Errorf("update not applied: %+v", l)
	}

	s.RemoveLayer(id)
	if s.Document().LayerByID(id) != nil {
		t.Error("layer still present after removal")
	}
}

func TestReorder(t *testing.T) {
	_, s := newTestSession(t)
	a, _ := s.AddLayer(NewLayer{Kind: core.LayerText, Text: "a"})
	b, _ := s.AddLayer(NewLayer{Kind: core.LayerText, Text: "b"})

	doc := s.Document()
	if doc.LayerByID(b).ZIndex <= doc.LayerByID(a).ZIndex {
		t.Fatal("new layers must insert at top of z-order")
	}

	s.Reorder(a, 99)
	if got := s.Document().LayerByID(a).ZIndex; got != 99 {
		t.Errorf("Reorder: zIndex = %d, want 99", got)
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	_, s := newTestSession(t)
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "one", X: 1})
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "two", X: 2})
	id, _ := s.AddLayer(NewLayer{Kind: core.LayerShape, Shape: "ellipse", Width: 10, Height: 10})
	x := 333.0
	s.UpdateLayer(id, LayerAttrs{X: &x})

	before, err := json.Marshal(s.Document())
	if err != nil {
		t.Fatal(err)
	}

	const n = 4
	for i := 0; i < n; i++ {
		if !s.Undo() {
			t.Fatalf("undo %d failed", i)
		}
	}
	for i := 0; i < n; i++ {
		if !s.Redo() {
			t.Fatalf("redo %d failed", i)
		}
	}

	after, err := json.Marshal(s.Document())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("document not byte-identical after %d undos and redos:\nbefore %s\nafter  %s", n, before, after)
	}
}

func TestUndo_EmptyStack(t *testing.T) {
	_, s := newTestSession(t)
	if s.Undo() {
		t.Error("Undo on fresh session must return false")
	}
	if s.Redo() {
		t.Error("Redo on fresh session must return false")
	}
}

func TestRedoInvalidatedByNewEdit(t *testing.T) {
	_, s := newTestSession(t)
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "one"})
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "two"})
	s.Undo()
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "three"})
	if s.Redo() {
		t.Error("redo stack must be cleared by a new edit")
	}
}

func TestBeginExport_Snapshot(t *testing.T) {
	_, s := newTestSession(t)
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "hi", X: 100, Y: 100})

	snap, gen, err := s.BeginExport()
	if err != nil {
		t.Fatalf("BeginExport failed: %v", err)
	}
	if s.State() != StateExporting {
		t.Errorf("state = %s, want %s", s.State(), StateExporting)
	}

	// Edits during export apply to the live document, not the snapshot.
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "late"})
	if len(snap.Document.Layers) != 1 {
		t.Errorf("snapshot mutated by a concurrent edit: %d layers", len(snap.Document.Layers))
	}

	s.FinishExport(gen)
	if s.State() != StateEditing {
		t.Errorf("state after FinishExport = %s, want %s", s.State(), StateEditing)
	}
}

func TestBeginExport_EmptyDocument(t *testing.T) {
	_, s := newTestSession(t)
	if _, _, err := s.BeginExport(); !core.IsValidation(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestFinishExport_StaleGeneration(t *testing.T) {
	m, s := newTestSession(t)
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "hi"})
	_, gen, _ := s.BeginExport()

	m.Close(s.ID)
	s.FinishExport(gen) // stale; must not flip a closed session back to editing
	if s.State() == StateEditing {
		t.Error("stale completion mutated a closed session")
	}
}

func TestEvictIdle(t *testing.T) {
	m := NewManager()
	stale, _ := m.Create("iphone-15-pro")
	fresh, _ := m.Create("iphone-15-pro")

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	if n := m.EvictIdle(30 * time.Minute); n != 1 {
		t.Fatalf("EvictIdle removed %d sessions, want 1", n)
	}
	if _, err := m.Get(stale.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("stale session still reachable: %v", err)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}

func TestEvictIdle_FencesInFlightExport(t *testing.T) {
	m := NewManager()
	s, _ := m.Create("iphone-15-pro")
	s.AddLayer(NewLayer{Kind: core.LayerText, Text: "hi"})
	_, gen, _ := s.BeginExport()

	s.mu.Lock()
	s.lastActive = time.Now().Add(-time.Hour)
	s.mu.Unlock()
	m.EvictIdle(30 * time.Minute)

	s.FinishExport(gen) // stale; must not flip an evicted session back to editing
	if s.State() == StateEditing {
		t.Error("stale completion mutated an evicted session")
	}
}

func TestGetRefreshesIdleTimer(t *testing.T) {
	m := NewManager()
	s, _ := m.Create("iphone-15-pro")
	s.mu.Lock()
	s.lastActive = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	if _, err := m.Get(s.ID); err != nil {
		t.Fatal(err)
	}
	if n := m.EvictIdle(30 * time.Minute); n != 0 {
		t.Errorf("EvictIdle removed %d sessions after a Get refreshed the timer", n)
	}
}

func TestOutsideMaskWarnings(t *testing.T) {
	_, s := newTestSession(t)
	inside, _ := s.AddLayer(NewLayer{Kind: core.LayerText, Text: "in", X: 225, Y: 460})
	outside, _ := s.AddLayer(NewLayer{Kind: core.LayerText, Text: "out", X: 2, Y: 2})

	warned := s.OutsideMaskWarnings()
	found := map[string]bool{}
	for _, id := range warned {
		found[id] = true
	}
	if found[inside] {
		t.Error("interior layer flagged")
	}
	if !found[outside] {
		t.Error("corner layer not flagged")
	}
}

func TestOutsideMaskWarnings_UsesLayerExtent(t *testing.T) {
	_, s := newTestSession(t)

	// Anchor sits inside the 60px corner arc, but the 80x80 shape centered on
	// it reaches (0,0), which the mask cuts away.
	overhang, _ := s.AddLayer(NewLayer{Kind: core.LayerShape, Shape: "rect", X: 40, Y: 40, Width: 80, Height: 80, Fill: "#ff0000"})
	centered, _ := s.AddLayer(NewLayer{Kind: core.LayerShape, Shape: "rect", X: 225, Y: 460, Width: 50, Height: 50, Fill: "#00ff00"})

	assetID, err := s.AddImageAsset(pngBytes(t, 100, 100, color.White))
	if err != nil {
		t.Fatalf("AddImageAsset failed: %v", err)
	}
	wideImage, _ := s.AddLayer(NewLayer{Kind: core.LayerImage, AssetID: assetID, X: 225, Y: 460, Scale: 5})

	found := map[string]bool{}
	for _, id := range s.OutsideMaskWarnings() {
		found[id] = true
	}
	if !found[overhang] {
		t.Error("shape overhanging a cut corner not flagged")
	}
	if found[centered] {
		t.Error("fully interior shape flagged")
	}
	if !found[wideImage] {
		t.Error("scaled image wider than the canvas not flagged")
	}
}
