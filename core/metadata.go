package core

import "strconv"

// Metadata keys attached to a customized line item. Fulfillment views and the
// cleanup reconciler key off MetaIsCustomized.
const (
	MetaIsCustomized = "is_customized"
	MetaCaseType     = "case_type"
	MetaDeviceModel  = "device_model"
	MetaDeviceHandle = "device_handle"
	MetaPreviewImage = "preview_image"
	MetaPreviewKey   = "preview_key"
	MetaPrintFile    = "print_file"
	MetaPrintFileKey = "print_file_key"
	MetaPrintDPI     = "print_dpi"
	MetaPrintWidth   = "print_width_mm"
	MetaPrintHeight  = "print_height_mm"
	MetaPrintBleed   = "print_bleed_mm"
)

// DesignMetadata is the durable record attached to a commerce line item once
// a design is committed. The blobs it references are reclaimed when the line
// item is removed or the owning order reaches a terminal state; the metadata
// itself persists with the historical order.
type DesignMetadata struct {
	CaseType      string
	DeviceModel   string
	DeviceHandle  string
	PreviewImage  string
	PreviewKey    string
	PrintFile     string
	PrintFileKey  string
	PrintDPI      int
	PrintWidthMm  float64
	PrintHeightMm float64
	PrintBleedMm  float64
}

// ToMap flattens the record into the string-keyed metadata map the Commerce
// Backend stores on line items.
func (m *DesignMetadata) ToMap() map[string]string {
	return map[string]string{
		MetaIsCustomized: "true",
		MetaCaseType:     m.CaseType,
		MetaDeviceModel:  m.DeviceModel,
		MetaDeviceHandle: m.DeviceHandle,
		MetaPreviewImage: m.PreviewImage,
		MetaPreviewKey:   m.PreviewKey,
		MetaPrintFile:    m.PrintFile,
		MetaPrintFileKey: m.PrintFileKey,
		MetaPrintDPI:     strconv.Itoa(m.PrintDPI),
		MetaPrintWidth:   strconv.FormatFloat(m.PrintWidthMm, 'f', -1, 64),
		MetaPrintHeight:  strconv.FormatFloat(m.PrintHeightMm, 'f', -1, 64),
		MetaPrintBleed:   strconv.FormatFloat(m.PrintBleedMm, 'f', -1, 64),
	}
}

// ParseDesignMetadata parses a line item's metadata map once at the boundary.
// The second return is false for line items that are not customized designs.
func ParseDesignMetadata(meta map[string]string) (*DesignMetadata, bool) {
	if meta == nil || meta[MetaIsCustomized] != "true" {
		return nil, false
	}
	dpi, _ := strconv.Atoi(meta[MetaPrintDPI])
	w, _ := strconv.ParseFloat(meta[MetaPrintWidth], 64)
	h, _ := strconv.ParseFloat(meta[MetaPrintHeight], 64)
	b, _ := strconv.ParseFloat(meta[MetaPrintBleed], 64)
	return &DesignMetadata{
		CaseType:      meta[MetaCaseType],
		DeviceModel:   meta[MetaDeviceModel],
		DeviceHandle:  meta[MetaDeviceHandle],
		PreviewImage:  meta[MetaPreviewImage],
		PreviewKey:    meta[MetaPreviewKey],
		PrintFile:     meta[MetaPrintFile],
		PrintFileKey:  meta[MetaPrintFileKey],
		PrintDPI:      dpi,
		PrintWidthMm:  w,
		PrintHeightMm: h,
		PrintBleedMm:  b,
	}, true
}

// BlobKeys returns the blob-store keys this record references, skipping
// empties.
func (m *DesignMetadata) BlobKeys() []string {
	var keys []string
	if m.PreviewKey != "" {
		keys = append(keys, m.PreviewKey)
	}
	if m.PrintFileKey != "" {
		keys = append(keys, m.PrintFileKey)
	}
	return keys
}
