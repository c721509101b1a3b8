package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inquora/atlas/backend/pkg/ai"
	"github.com/inquora/atlas/backend/pkg/graph"
	"github.com/inquora/atlas/backend/pkg/leaselock"
	"github.com/inquora/atlas/backend/pkg/logger"
)

// QueueHierarchyMergeMsg is the payload of a hierarchy_merge_queue job.
type QueueHierarchyMergeMsg struct {
	CollectionID  int64  `json:"collection_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// ProcessHierarchyMerge runs and applies a topic hierarchy merge for one
// collection. Merge runs are serialized per collection with a lease and
// serialized against graph builds only by their own store transaction.
func ProcessHierarchyMerge(
	ctx context.Context,
	engine *graph.Engine,
	aiClient ai.GraphAIClient,
	locks *leaselock.Client,
	msg string,
) error {
	data := new(QueueHierarchyMergeMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	logger.Info("[Queue] Starting hierarchy merge", "collection_id", data.CollectionID, "correlation_id", data.CorrelationID)

	key := fmt.Sprintf("hierarchy_merge:%d", data.CollectionID)
	opts := leaselock.Options{
		TTL:         15 * time.Minute,
		TokenPrefix: "merge",
	}

	return locks.WithLease(ctx, key, opts, func(ctx context.Context) error {
		report, err := engine.ApplyHierarchyMerge(ctx, data.CollectionID, aiClient)
		if err != nil {
			return err
		}

		logger.Info(
			"[Queue] Hierarchy merge finished",
			"collection_id", data.CollectionID,
			"run_id", report.RunID,
			"topics", report.TotalTopics,
			"classified", report.Classified,
			"failed_batches", report.FailedBatches,
		)
		return nil
	})
}
