package sqlite

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"caseforge/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db            *sql.DB
	publicBaseURL string
}

// NewStore creates a new SQLite-based blob store.
func NewStore(dataSourceName, publicBaseURL string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	blobTableStmt := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		mime_type TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);`
	if _, err = db.Exec(blobTableStmt); err != nil {
		log.Fatalf("failed to create blobs table: %v", err)
	}

	return &sqliteStore{db: db, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

func (s *sqliteStore) Put(ctx context.Context, data []byte, mimeType string) (*core.UploadedAsset, error) {
	key := ulid.Make().String() + core.MimeExtension(mimeType)
	log := logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blobs (key, mime_type, data, created_at) VALUES (?, ?, ?, ?)",
		key, mimeType, data, time.Now())
	if err != nil {
		log.WithError(err).Error("Failed to store blob")
		return nil, err
	}

	log.Info("Blob stored")
	return &core.UploadedAsset{
		URL: s.publicBaseURL + "/assets/" + key,
		Key: key,
	}, nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Error("Failed to delete blob")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		logrus.WithField("key", key).Warn("Blob not found for deletion")
		return false, nil
	}
	logrus.WithField("key", key).Info("Blob deleted")
	return true, nil
}

// Fetch reads a stored blob back for the asset serving route.
func (s *sqliteStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := s.db.QueryRowContext(ctx, "SELECT data, mime_type FROM blobs WHERE key = ?", key).Scan(&data, &mime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", core.ErrNotFound
		}
		return nil, "", err
	}
	return data, mime, nil
}
