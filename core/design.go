package core

type LayerKind string

const (
	LayerImage LayerKind = "image"
	LayerText  LayerKind = "text"
	LayerShape LayerKind = "shape"
)

type (
	// Layer is one element of a design. Kind selects which of the
	// kind-specific fields are meaningful; the positional attributes are
	// common to all kinds and expressed in the device's canvas coordinate
	// space.
	Layer struct {
		ID       string    `json:"id"`
		Kind     LayerKind `json:"kind"`
		X        float64   `json:"x"`
		Y        float64   `json:"y"`
		Scale    float64   `json:"scale"`
		Rotation float64   `json:"rotation"` // degrees, clockwise
		Opacity  float64   `json:"opacity"`  // 0..1
		ZIndex   int       `json:"zIndex"`

		// image
		AssetID string `json:"assetId,omitempty"`

		// text
		Text     string  `json:"text,omitempty"`
		FontSize float64 `json:"fontSize,omitempty"`
		Color    string  `json:"color,omitempty"`

		// shape
		Shape  string  `json:"shape,omitempty"` // "rect" | "ellipse"
		Width  float64 `json:"width,omitempty"`
		Height float64 `json:"height,omitempty"`
		Fill   string  `json:"fill,omitempty"`
	}

	// DesignDocument is the live design being edited in one session. All
	// layer geometry is in the canvas coordinate space of DeviceHandle's
	// config.
	DesignDocument struct {
		DeviceHandle string  `json:"deviceHandle"`
		Background   string  `json:"background,omitempty"` // hex case color
		Layers       []Layer `json:"layers"`
	}
)

// Clone returns a deep copy of the document. Export snapshots and undo
// history rely on clones never aliasing the live layer slice.
func (d *DesignDocument) Clone() *DesignDocument {
	out := &DesignDocument{
		DeviceHandle: d.DeviceHandle,
		Background:   d.Background,
	}
	if d.Layers != nil {
		out.Layers = make([]Layer, len(d.Layers))
		copy(out.Layers, d.Layers)
	}
	return out
}

// LayerByID returns the layer with the given id, or nil.
func (d *DesignDocument) LayerByID(id string) *Layer {
	for i := range d.Layers {
		if d.Layers[i].ID == id {
			return &d.Layers[i]
		}
	}
	return nil
}
