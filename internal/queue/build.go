package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/leaselock"
	"github.com/inquora/atlas/backend/pkg/logger"
)

// QueueGraphBuildMsg is the payload of a graph_build_queue job.
type QueueGraphBuildMsg struct {
	CollectionID  int64  `json:"collection_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// ProcessGraphBuild rebuilds the derived entity graph of one collection.
// The build runs under a per-collection lease so that at most one build
// is in flight; a busy lease fails the job into the retry queue.
func ProcessGraphBuild(
	ctx context.Context,
	engine *graph.Engine,
	locks *leaselock.Client,
	msg string,
) error {
	data := new(QueueGraphBuildMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	logger.Info("[Queue] Starting graph build", "collection_id", data.CollectionID, "correlation_id", data.CorrelationID)

	key := fmt.Sprintf("graph_build:%d", data.CollectionID)
	opts := leaselock.Options{
		TTL:         10 * time.Minute,
		TokenPrefix: "build",
	}

	return locks.WithLease(ctx, key, opts, func(ctx context.Context) error {
		if err := engine.Store().BuildGraph(ctx, data.CollectionID); err != nil {
			return err
		}
		engine.InvalidateAll(data.CollectionID)

		// Warm both caches so the first read after a build doesn't pay
		// the rebuild latency. Failures here are non-fatal: the next
		// read retries the rebuild.
		caches := engine.Collection(data.CollectionID)
		if _, err := caches.Graph.Ensure(ctx); err != nil {
			logger.Warn("[Queue] Graph cache warm-up failed", "collection_id", data.CollectionID, "err", err)
		}
		if _, err := caches.Topics.Ensure(ctx); err != nil {
			logger.Warn("[Queue] Topic cache warm-up failed", "collection_id", data.CollectionID, "err", err)
		}

		logger.Info("[Queue] Graph build finished", "collection_id", data.CollectionID, "correlation_id", data.CorrelationID)
		return nil
	})
}
