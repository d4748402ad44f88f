package core

import (
	"context"
	"strings"
)

type (
	// UploadedAsset is the result of persisting one raster to blob storage.
	// Key is the durable handle used for later deletion; URL is the
	// externally fetchable address.
	UploadedAsset struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}

	// BlobStore is the opaque object storage the customizer persists print
	// assets into.
	BlobStore interface {
		// Put stores data under a fresh key and returns its address.
		Put(ctx context.Context, data []byte, mimeType string) (*UploadedAsset, error)

		// Delete removes an object. A missing key is not an error; it is
		// reported as (false, nil) so cleanup can count no-ops separately.
		Delete(ctx context.Context, key string) (bool, error)
	}

	// BlobReader is implemented by backends whose uploaded URLs point back at
	// this service. The asset route serves them through Fetch; s3 objects are
	// fetched from the bucket's own public address instead.
	BlobReader interface {
		Fetch(ctx context.Context, key string) (data []byte, mimeType string, err error)
	}
)

// MimeForKey maps a stored key's extension back to its mime type.
func MimeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".svg"):
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// MimeExtension maps an accepted upload mime type to a file extension, or ""
// for types the customizer does not accept.
func MimeExtension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}
