package editor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"caseforge/core"
	"caseforge/devices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session lifecycle states. Exporting is transient and re-enters Editing on
// completion or failure; edits made while an export is in flight apply to the
// live document, never to the snapshot being exported.
const (
	StateEmpty     = "empty"
	StateEditing   = "editing"
	StateExporting = "exporting"
)

type (
	// Session owns one DesignDocument for one editing client. It is created
	// when a shopper opens the customizer for a device and discarded on
	// navigation away unless exported.
	Session struct {
		ID     string
		Device *core.DeviceConfig

		mu         sync.Mutex
		doc        *core.DesignDocument
		assets     map[string]image.Image
		hist       history
		state      string
		generation uint64
		lastActive time.Time
	}

	// Manager tracks the active sessions. Each document is exclusively owned
	// by its session; there is no concurrent multi-user editing.
	Manager struct {
		mu       sync.RWMutex
		sessions map[string]*Session
	}
)

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create opens a new session constrained to a device's canvas space.
func (m *Manager) Create(deviceHandle string) (*Session, error) {
	device, err := devices.Get(deviceHandle)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:         uuid.NewString(),
		Device:     device,
		doc:        &core.DesignDocument{DeviceHandle: device.Handle},
		assets:     make(map[string]image.Image),
		state:      StateEmpty,
		lastActive: time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	logrus.WithFields(logrus.Fields{"session_id": s.ID, "device": device.Handle}).Info("design session created")
	return s, nil
}

// Get looks up a session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, core.ErrNotFound)
	}
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
	return s, nil
}

// Close discards a session. Bumping the generation fences any in-flight
// export so a stale completion cannot touch a document the user has left.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.generation++
		s.state = StateEmpty
		s.mu.Unlock()
		logrus.WithField("session_id", id).Info("design session closed")
	}
}

// EvictIdle discards sessions untouched for longer than maxIdle and returns
// how many were removed. Abandoned tabs would otherwise pin their decoded
// assets forever. Eviction fences in-flight exports the same way Close does.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if stale {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.mu.Lock()
		s.generation++
		s.state = StateEmpty
		s.mu.Unlock()
		logrus.WithField("session_id", s.ID).Info("idle design session evicted")
	}
	return len(idle)
}

// State returns the session's current lifecycle state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Document returns a clone of the live document.
func (s *Session) Document() *core.DesignDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// AddImageAsset decodes raw image bytes and registers the bitmap for use by
// image layers. Layers may only reference assets that decoded successfully,
// which keeps still-loading sources out of the export path.
func (s *Session) AddImageAsset(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", core.Validationf("image could not be decoded")
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.assets[id] = img
	s.mu.Unlock()
	return id, nil
}

// AddLayer inserts a layer at the top of the z-order and returns its id.
func (s *Session) AddLayer(in NewLayer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch in.Kind {
	case core.LayerImage:
		if _, ok := s.assets[in.AssetID]; !ok {
			return "", core.Validationf("image layer references an unknown asset")
		}
	case core.LayerText:
		if in.Text == "" {
			return "", core.Validationf("text layer requires text")
		}
	case core.LayerShape:
		if in.Shape != "rect" && in.Shape != "ellipse" {
			return "", core.Validationf("shape must be rect or ellipse")
		}
	default:
		return "", core.Validationf("unknown layer kind")
	}

	s.hist.record(s.doc)
	top := 0
	for _, l := range s.doc.Layers {
		if l.ZIndex >= top {
			top = l.ZIndex + 1
		}
	}
	layer := buildLayer(in, top)
	s.doc.Layers = append(s.doc.Layers, layer)
	s.state = StateEditing
	return layer.ID, nil
}

// UpdateLayer merges partial attributes into a layer. An unknown id is a
// benign race from async UI events and is a no-op, not an error.
func (s *Session) UpdateLayer(layerID string, attrs LayerAttrs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.doc.LayerByID(layerID)
	if l == nil {
		return
	}
	s.hist.record(s.doc)
	attrs.apply(l)
}

// RemoveLayer deletes a layer. Unknown ids are ignored.
func (s *Session) RemoveLayer(layerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Layers {
		if s.doc.Layers[i].ID == layerID {
			s.hist.record(s.doc)
			s.doc.Layers = append(s.doc.Layers[:i], s.doc.Layers[i+1:]...)
			return
		}
	}
}

// Reorder moves a layer to a new z-index. Unknown ids are ignored.
func (s *Session) Reorder(layerID string, newZIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.doc.LayerByID(layerID)
	if l == nil {
		return
	}
	s.hist.record(s.doc)
	l.ZIndex = newZIndex
}

// SetBackground sets the case background color.
func (s *Session) SetBackground(hex string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hist.record(s.doc)
	s.doc.Background = hex
}

// Undo steps the document back one snapshot. Returns false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev := s.hist.stepBack(s.doc); prev != nil {
		s.doc = prev
		return true
	}
	return false
}

// Redo reverses the most recent undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next := s.hist.stepForward(s.doc); next != nil {
		s.doc = next
		return true
	}
	return false
}

// OutsideMaskWarnings lists layers whose rendered extent has drifted outside
// the printable mask. Soft constraint only: users may intentionally bleed
// artwork, so this never blocks an export.
func (s *Session) OutsideMaskWarnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	mask := devices.MaskPath(s.Device)
	var ids []string
	for _, l := range s.doc.Layers {
		w, h := s.layerExtent(l)
		outside := false
		if w > 0 && h > 0 {
			// Layers render center-anchored, so the extent straddles (X, Y).
			// Rotation is ignored: close enough for a soft warning.
			outside = !mask.ContainsRect(l.X-w/2, l.Y-h/2, w, h)
		} else {
			outside = !mask.Contains(l.X, l.Y)
		}
		if outside {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// layerExtent returns the unrotated rendered size of a layer in canvas
// pixels. Text layers report zero; measuring them needs a font face, and the
// anchor check is adequate for a warning.
func (s *Session) layerExtent(l core.Layer) (w, h float64) {
	switch l.Kind {
	case core.LayerImage:
		img, ok := s.assets[l.AssetID]
		if !ok || img == nil {
			return 0, 0
		}
		b := img.Bounds()
		return float64(b.Dx()) * l.Scale, float64(b.Dy()) * l.Scale
	case core.LayerShape:
		return l.Width * l.Scale, l.Height * l.Scale
	}
	return 0, 0
}

// BeginExport takes an immutable snapshot of the document and marks the
// session Exporting. The returned generation must be handed back to
// FinishExport; a session closed or re-exported in between invalidates it.
func (s *Session) BeginExport() (*Snapshot, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.doc.Layers) == 0 {
		return nil, 0, core.Validationf("design has no layers")
	}
	for _, l := range s.doc.Layers {
		if l.Kind == core.LayerImage {
			if _, ok := s.assets[l.AssetID]; !ok {
				return nil, 0, &core.ExportError{LayerID: l.ID, Reason: "asset not resolved"}
			}
		}
	}
	s.generation++
	s.state = StateExporting
	assets := make(map[string]image.Image, len(s.assets))
	for id, img := range s.assets {
		assets[id] = img
	}
	return &Snapshot{
		Document: s.doc.Clone(),
		Assets:   assets,
		Device:   s.Device,
	}, s.generation, nil
}

// FinishExport re-enters Editing. Stale generations (session closed or a
// newer export started) are ignored.
func (s *Session) FinishExport(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.state = StateEditing
}
