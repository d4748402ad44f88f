// Package editor owns the live design documents being edited. Each session
// holds exactly one document; every mutation goes through the session so undo
// history and the export state machine stay consistent.
package editor

import (
	"image"
	"sort"

	"caseforge/core"

	"github.com/google/uuid"
)

// LayerAttrs is a partial update of a layer's positional and visual
// attributes. Nil fields are left untouched.
type LayerAttrs struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Text     *string  `json:"text,omitempty"`
	FontSize *float64 `json:"fontSize,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Fill     *string  `json:"fill,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
}

func (a *LayerAttrs) apply(l *core.Layer) {
	if a.X != nil {
		l.X = *a.X
	}
	if a.Y != nil {
		l.Y = *a.Y
	}
	if a.Scale != nil {
		l.Scale = *a.Scale
	}
	if a.Rotation != nil {
		l.Rotation = *a.Rotation
	}
	if a.Opacity != nil {
		l.Opacity = *a.Opacity
	}
	if a.Text != nil {
		l.Text = *a.Text
	}
	if a.FontSize != nil {
		l.FontSize = *a.FontSize
	}
	if a.Color != nil {
		l.Color = *a.Color
	}
	if a.Fill != nil {
		l.Fill = *a.Fill
	}
	if a.Width != nil {
		l.Width = *a.Width
	}
	if a.Height != nil {
		l.Height = *a.Height
	}
}

// NewLayer describes a layer being added. Image layers reference an asset
// previously registered on the session.
type NewLayer struct {
	Kind     core.LayerKind `json:"kind"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Scale    float64        `json:"scale"`
	Rotation float64        `json:"rotation"`
	Opacity  float64        `json:"opacity"`
	AssetID  string         `json:"assetId,omitempty"`
	Text     string         `json:"text,omitempty"`
	FontSize float64        `json:"fontSize,omitempty"`
	Color    string         `json:"color,omitempty"`
	Shape    string         `json:"shape,omitempty"`
	Width    float64        `json:"width,omitempty"`
	Height   float64        `json:"height,omitempty"`
	Fill     string         `json:"fill,omitempty"`
}

func buildLayer(in NewLayer, zIndex int) core.Layer {
	l := core.Layer{
		ID:       uuid.NewString(),
		Kind:     in.Kind,
		X:        in.X,
		Y:        in.Y,
		Scale:    in.Scale,
		Rotation: in.Rotation,
		Opacity:  in.Opacity,
		ZIndex:   zIndex,
		AssetID:  in.AssetID,
		Text:     in.Text,
		FontSize: in.FontSize,
		Color:    in.Color,
		Shape:    in.Shape,
		Width:    in.Width,
		Height:   in.Height,
		Fill:     in.Fill,
	}
	if l.Scale == 0 {
		l.Scale = 1
	}
	if l.Opacity == 0 {
		l.Opacity = 1
	}
	return l
}

// sortedByZ returns the document's layers ordered bottom to top.
func sortedByZ(doc *core.DesignDocument) []core.Layer {
	out := make([]core.Layer, len(doc.Layers))
	copy(out, doc.Layers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Snapshot is the immutable input handed to the export pipeline: a deep copy
// of the document plus the decoded bitmaps its image layers reference. Both
// rasters are generated from the same snapshot so what the customer approved
// and what gets printed stay in visual parity.
type Snapshot struct {
	Document *core.DesignDocument
	Assets   map[string]image.Image
	Device   *core.DeviceConfig
}

// Layers returns the snapshot's layers ordered bottom to top.
func (s *Snapshot) Layers() []core.Layer {
	return sortedByZ(s.Document)
}
