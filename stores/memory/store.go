package memory

import (
	"context"
	"sync"

	"caseforge/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type blob struct {
	data []byte
	mime string
}

// memStore keeps blobs in process memory. Used by tests and local
// development; nothing survives a restart.
type memStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewStore creates a new in-memory blob store.
func NewStore() *memStore {
	return &memStore{blobs: make(map[string]blob)}
}

func (s *memStore) Put(ctx context.Context, data []byte, mimeType string) (*core.UploadedAsset, error) {
	key := ulid.Make().String() + core.MimeExtension(mimeType)

	s.mu.Lock()
	s.blobs[key] = blob{data: data, mime: mimeType}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	}).Info("Blob stored")

	return &core.UploadedAsset{URL: "memory://" + key, Key: key}, nil
}

func (s *memStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		logrus.WithField("key", key).Warn("Blob not found for deletion")
		return false, nil
	}
	delete(s.blobs, key)
	logrus.WithField("key", key).Info("Blob deleted")
	return true, nil
}

// Fetch reads a stored blob back for the asset serving route.
func (s *memStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, "", core.ErrNotFound
	}
	return b.data, b.mime, nil
}

// Get returns a stored blob's bytes. Test helper; the production contract is
// write and delete only.
func (s *memStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	return b.data, ok
}

// Len reports the number of stored blobs.
func (s *memStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
