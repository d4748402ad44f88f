package stores

import (
	"caseforge/core"
	"caseforge/stores/aws"
	"caseforge/stores/filesystem"
	"caseforge/stores/memory"
	"caseforge/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Options selects and parameterizes the blob store backend print assets are
// persisted into.
type Options struct {
	Type           string // "filesystem", "sqlite", "s3"; anything else is in-memory
	BasePath       string // filesystem root
	DataSourceName string // sqlite file
	S3Bucket       string
	PublicBaseURL  string // external address uploaded assets are fetchable from
}

// GetStore builds the configured blob store. The in-memory fallback is for
// development and tests only; production print files must survive restarts.
func GetStore(opts Options) core.BlobStore {
	var store core.BlobStore

	storageField := logrus.Fields{
		"storageType": opts.Type,
	}

	switch opts.Type {
	case "filesystem":
		basePath := opts.BasePath
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath, opts.PublicBaseURL)
	case "sqlite":
		dataSourceName := opts.DataSourceName
		if dataSourceName == "" {
			dataSourceName = "caseforge.db"
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewStore(dataSourceName, opts.PublicBaseURL)
	case "s3":
		if opts.S3Bucket == "" {
			logrus.Fatal("s3 bucket must be configured for s3 storage type")
		}
		storageField["bucketName"] = opts.S3Bucket
		store = aws.NewStore(opts.S3Bucket, opts.PublicBaseURL)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
