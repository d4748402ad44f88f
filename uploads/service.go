// Package uploads implements the two-phase persist-and-commit sequence that
// turns an exported design into durable line item metadata: upload both
// rasters to blob storage, then attach the returned keys and the design
// metadata to the cart line item.
package uploads

import (
	"context"
	"encoding/base64"
	"fmt"

	"caseforge/core"

	"github.com/sirupsen/logrus"
)

const (
	// MaxFilesPerRequest bounds one upload request to preview + print.
	MaxFilesPerRequest = 2

	// MaxEncodedBytes caps a single base64 payload: 5 MiB raw at the ~1.37x
	// base64 expansion factor.
	MaxEncodedBytes = 5 * 1024 * 1024 * 137 / 100
)

var allowedMimeTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/svg+xml": true,
}

// File is one base64-encoded raster in an upload request.
type File struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type Service struct {
	store core.BlobStore
	carts core.CartService
}

func NewService(store core.BlobStore, carts core.CartService) *Service {
	return &Service{store: store, carts: carts}
}

// validate applies every request-shape check before any blob is written.
func validate(cartID string, files []File) error {
	if cartID == "" {
		return core.ErrCartRequired
	}
	if len(files) == 0 {
		return core.Validationf("No files provided")
	}
	if len(files) > MaxFilesPerRequest {
		return core.Validationf(fmt.Sprintf("Maximum %d files allowed", MaxFilesPerRequest))
	}
	for _, f := range files {
		if f.Name == "" || f.Content == "" || f.MimeType == "" {
			return core.Validationf("Each file requires name, content and mimeType")
		}
		if !allowedMimeTypes[f.MimeType] {
			return core.Validationf(fmt.Sprintf("Unsupported file type: %s", f.MimeType))
		}
		if len(f.Content) > MaxEncodedBytes {
			return core.Validationf(fmt.Sprintf("File %s exceeds the maximum allowed size", f.Name))
		}
	}
	return nil
}

// Upload validates the request and persists each file to the blob store.
// Any storage failure aborts the batch; keys written up to that point are
// reclaimed best-effort so no half-uploaded pair survives.
func (s *Service) Upload(ctx context.Context, cartID string, files []File) ([]core.UploadedAsset, error) {
	if err := validate(cartID, files); err != nil {
		return nil, err
	}

	uploaded := make([]core.UploadedAsset, 0, len(files))
	for _, f := range files {
		data, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			s.rollback(ctx, uploaded)
			return nil, core.Validationf(fmt.Sprintf("File %s is not valid base64", f.Name))
		}

		asset, err := s.store.Put(ctx, data, f.MimeType)
		if err != nil {
			s.rollback(ctx, uploaded)
			return nil, fmt.Errorf("uploading %s: %w", f.Name, err)
		}
		uploaded = append(uploaded, *asset)

		logrus.WithFields(logrus.Fields{
			"cartID": cartID,
			"key":    asset.Key,
			"bytes":  len(data),
		}).Debug("Stored design raster")
	}
	return uploaded, nil
}

// rollback deletes keys written before an aborted upload. Failures here only
// widen the orphan window the reconciler already covers, so they are logged
// and absorbed.
func (s *Service) rollback(ctx context.Context, uploaded []core.UploadedAsset) {
	for _, asset := range uploaded {
		if _, err := s.store.Delete(ctx, asset.Key); err != nil {
			logrus.WithFields(logrus.Fields{
				"key":   asset.Key,
				"error": err,
			}).Warn("Failed to roll back aborted upload")
		}
	}
}

// Commit attaches design metadata to the target line item. The line item is
// resolved first so a stale cart or item id surfaces as core.ErrNotFound
// instead of creating dangling metadata. The metadata merge is last write
// wins, so re-running a commit is safe.
func (s *Service) Commit(ctx context.Context, cartID, lineItemID string, update core.MetadataUpdate) error {
	if cartID == "" || lineItemID == "" {
		return core.Validationf("cart_id and line_item_id are required")
	}
	if len(update.Metadata) == 0 {
		return core.Validationf("metadata is required")
	}

	if _, err := s.carts.FindLineItem(ctx, cartID, lineItemID); err != nil {
		return err
	}
	if err := s.carts.UpdateLineItemMetadata(ctx, lineItemID, update); err != nil {
		return fmt.Errorf("committing metadata to line item %s: %w", lineItemID, err)
	}

	logrus.WithFields(logrus.Fields{
		"cartID":     cartID,
		"lineItemID": lineItemID,
	}).Info("Committed design metadata")
	return nil
}
