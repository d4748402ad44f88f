package filesystem

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"caseforge/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath      string
	publicBaseURL string
}

// NewStore creates a new filesystem-based blob store. Assets are served from
// publicBaseURL/assets/{key} by the static file route.
func NewStore(basePath, publicBaseURL string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

func (s *fsStore) Put(ctx context.Context, data []byte, mimeType string) (*core.UploadedAsset, error) {
	key := ulid.Make().String() + core.MimeExtension(mimeType)
	filePath := filepath.Join(s.basePath, key)
	log := logrus.WithFields(logrus.Fields{
		"key":       key,
		"file_path": filePath,
	})

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write blob")
		return nil, err
	}

	log.Info("Blob stored")
	return &core.UploadedAsset{
		URL: s.publicBaseURL + "/assets/" + key,
		Key: key,
	}, nil
}

func (s *fsStore) Delete(ctx context.Context, key string) (bool, error) {
	// Keys are ulid-derived file names; reject anything path-like.
	if filepath.Base(key) != key || key == "" || key == "." || key == ".." {
		logrus.WithField("key", key).Warn("Rejected path-like blob key")
		return false, nil
	}

	filePath := filepath.Join(s.basePath, key)
	err := os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("key", key).Warn("Blob not found for deletion")
			return false, nil
		}
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Error("Failed to delete blob")
		return false, err
	}
	logrus.WithField("key", key).Info("Blob deleted")
	return true, nil
}

// Fetch reads a stored blob back for the asset serving route.
func (s *fsStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	if filepath.Base(key) != key || key == "" || key == "." || key == ".." {
		return nil, "", core.ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", core.ErrNotFound
		}
		return nil, "", err
	}
	return data, core.MimeForKey(key), nil
}

// BasePath reports the storage root.
func (s *fsStore) BasePath() string { return s.basePath }
