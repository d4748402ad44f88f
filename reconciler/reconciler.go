// Package reconciler reclaims design blobs that are no longer referenced:
// explicitly when a customized line item leaves an active cart, and
// event-driven when an order is cancelled or completed. All deletion is
// best-effort; the reconciler never fails the commerce operation that
// triggered it.
package reconciler

import (
	"context"
	"fmt"

	"caseforge/core"

	"github.com/sirupsen/logrus"
)

// MaxKeysPerBatch bounds one explicit cleanup call.
const MaxKeysPerBatch = 10

// Result reports the outcome for one key. A key that was already gone is
// Deleted:false with no error.
type Result struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type Reconciler struct {
	store core.BlobStore
}

func New(store core.BlobStore) *Reconciler {
	return &Reconciler{store: store}
}

// CleanupKeys deletes an explicit batch of blob keys. Per-key failures are
// recorded and logged but never abort the batch.
func (r *Reconciler) CleanupKeys(ctx context.Context, keys []string) ([]Result, error) {
	if len(keys) == 0 {
		return nil, core.Validationf("file_keys is required")
	}
	if len(keys) > MaxKeysPerBatch {
		return nil, core.Validationf(fmt.Sprintf("Maximum %d keys allowed per cleanup call", MaxKeysPerBatch))
	}

	results := make([]Result, 0, len(keys))
	for _, key := range keys {
		results = append(results, r.deleteOne(ctx, key))
	}
	return results, nil
}

func (r *Reconciler) deleteOne(ctx context.Context, key string) Result {
	deleted, err := r.store.Delete(ctx, key)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"key":   key,
			"error": err,
		}).Warn("Failed to delete design blob")
		return Result{Key: key, Error: err.Error()}
	}
	if !deleted {
		logrus.WithField("key", key).Debug("Design blob already gone")
	}
	return Result{Key: key, Deleted: deleted}
}

// HandleOrderEvent reclaims the blobs of every customized line item on an
// order that reached a terminal state. Unknown event types are ignored. The
// returned results are informational; errors inside them are already logged
// and must not propagate to the event source.
func (r *Reconciler) HandleOrderEvent(ctx context.Context, event core.OrderEvent) []Result {
	if event.Type != core.OrderEventCancelled && event.Type != core.OrderEventCompleted {
		logrus.WithField("type", event.Type).Debug("Ignoring order event")
		return nil
	}

	var results []Result
	for _, item := range event.Order.Items {
		meta, ok := core.ParseDesignMetadata(item.Metadata)
		if !ok {
			continue
		}
		for _, key := range meta.BlobKeys() {
			results = append(results, r.deleteOne(ctx, key))
		}
	}

	logrus.WithFields(logrus.Fields{
		"orderID": event.Order.ID,
		"type":    event.Type,
		"keys":    len(results),
	}).Info("Reconciled order design blobs")
	return results
}
