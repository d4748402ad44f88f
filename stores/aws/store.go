package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"caseforge/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type s3Store struct {
	s3Client      *s3.Client
	bucket        string
	publicBaseURL string
}

// NewStore creates a new S3-based blob store.
func NewStore(bucketName, publicBaseURL string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	s3Client := s3.NewFromConfig(cfg)

	return &s3Store{
		s3Client:      s3Client,
		bucket:        bucketName,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

func (s *s3Store) url(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

func (s *s3Store) Put(ctx context.Context, data []byte, mimeType string) (*core.UploadedAsset, error) {
	key := ulid.Make().String() + core.MimeExtension(mimeType)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"key":         key,
		"bucket":      s.bucket,
		"data_length": len(data),
	}).Info("Blob stored")

	return &core.UploadedAsset{URL: s.url(key), Key: key}, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) (bool, error) {
	// S3 DeleteObject succeeds for missing keys; head the object first so cleanup can
	// report already-removed blobs as no-ops.
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			logrus.WithField("key", key).Warn("Blob not found for deletion")
			return false, nil
		}
		return false, fmt.Errorf("failed to check blob %s: %v", key, err)
	}

	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete blob %s: %v", key, err)
	}
	logrus.WithFields(logrus.Fields{"key": key, "bucket": s.bucket}).Info("Blob deleted")
	return true, nil
}
