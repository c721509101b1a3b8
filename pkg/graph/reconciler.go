package graph

import (
	"context"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/inquora/atlas/backend/pkg/ai"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
)

// classificationBatchSize is the fixed chunk size for hierarchy
// classification runs. Batches are processed sequentially; a failed batch
// contributes nothing instead of aborting the run.
const classificationBatchSize = 50

// MergeReport is the outcome of one hierarchy reconciliation run. Preview
// and apply runs produce the same report shape; only Applied differs.
type MergeReport struct {
	RunID         string              `json:"run_id"`
	CollectionID  int64               `json:"collection_id"`
	TotalTopics   int                 `json:"total_topics"`
	Classified    int                 `json:"classified"`
	FailedBatches int                 `json:"failed_batches"`
	Applied       bool                `json:"applied"`
	Merges        []common.TopicMerge `json:"merges"`
}

// PreviewHierarchyMerge runs the full classification pipeline without
// touching the topic store. The classification logic is shared with
// ApplyHierarchyMerge so a preview is an exact dry run.
func (e *Engine) PreviewHierarchyMerge(
	ctx context.Context,
	collectionID int64,
	client ai.GraphAIClient,
) (*MergeReport, error) {
	return e.reconcileHierarchy(ctx, collectionID, client, false)
}

// ApplyHierarchyMerge classifies the topic hierarchy, commits the accepted
// merges to the topic store, and invalidates both derived caches of the
// collection.
func (e *Engine) ApplyHierarchyMerge(
	ctx context.Context,
	collectionID int64,
	client ai.GraphAIClient,
) (*MergeReport, error) {
	return e.reconcileHierarchy(ctx, collectionID, client, true)
}

func (e *Engine) reconcileHierarchy(
	ctx context.Context,
	collectionID int64,
	client ai.GraphAIClient,
	apply bool,
) (*MergeReport, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	hierarchy, err := e.store.GetTopicHierarchy(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic hierarchy: %w", err)
	}

	names := make([]string, 0, len(hierarchy))
	for _, node := range hierarchy {
		names = append(names, node.Name)
	}

	classified, failedBatches := e.classifyTopics(ctx, client, runID, names, hierarchy)

	merges := make([]common.TopicMerge, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		merge, ok := classified[key]
		if !ok {
			merge = common.TopicMerge{
				Topic:  name,
				Action: common.MergeActionKeepRoot,
			}
		}
		merges = append(merges, merge)
	}

	dropCyclicMerges(merges, hierarchy)

	report := &MergeReport{
		RunID:         runID,
		CollectionID:  collectionID,
		TotalTopics:   len(merges),
		Classified:    len(classified),
		FailedBatches: failedBatches,
		Applied:       false,
		Merges:        merges,
	}

	if !apply {
		return report, nil
	}

	if err := e.store.ApplyTopicMerges(ctx, collectionID, merges); err != nil {
		return nil, fmt.Errorf("failed to apply topic merges: %w", err)
	}
	e.InvalidateAll(collectionID)
	report.Applied = true

	logger.Info("[Reconciler] hierarchy merges applied",
		"run_id", runID,
		"collection_id", collectionID,
		"topics", report.TotalTopics,
		"failed_batches", failedBatches,
	)

	return report, nil
}

// classifyTopics runs the batched classification loop. The returned map is
// keyed by lower-cased topic name so lookups survive case drift between
// the model's echo of a name and the stored form.
func (e *Engine) classifyTopics(
	ctx context.Context,
	client ai.GraphAIClient,
	runID string,
	names []string,
	hierarchy []common.TopicNode,
) (map[string]common.TopicMerge, int) {
	knownTopics := make(map[string]bool, len(hierarchy))
	for _, node := range hierarchy {
		knownTopics[strings.ToLower(node.Name)] = true
	}

	classified := make(map[string]common.TopicMerge, len(names))
	failedBatches := 0

	for start := 0; start < len(names); start += classificationBatchSize {
		if ctx.Err() != nil {
			logger.Warn("[Reconciler] classification canceled",
				"run_id", runID,
				"remaining", len(names)-start,
			)
			break
		}

		end := min(start+classificationBatchSize, len(names))
		batch := names[start:end]

		results, err := ai.ClassifyTopicBatch(ctx, client, batch, hierarchy, e.maxRetries)
		if err != nil {
			logger.Warn("[Reconciler] classification batch failed",
				"run_id", runID,
				"batch_start", start,
				"batch_size", len(batch),
				"err", err,
			)
			failedBatches++
			continue
		}

		batchSet := make(map[string]string, len(batch))
		for _, name := range batch {
			batchSet[strings.ToLower(name)] = name
		}

		for _, result := range results {
			key := strings.ToLower(result.Topic)
			canonical, inBatch := batchSet[key]
			if !inBatch {
				logger.Warn("[Reconciler] classification for topic outside batch",
					"run_id", runID,
					"topic", result.Topic,
				)
				continue
			}
			classified[key] = sanitizeMerge(canonical, result, knownTopics)
		}
	}

	return classified, failedBatches
}

// dropCyclicMerges downgrades re-parenting verdicts whose target sits
// below the topic itself, so applying the run cannot create a parent
// cycle and break the forest. Verdicts are checked in report order
// against a parent map seeded from the stored hierarchy; each accepted
// verdict updates the map, so the first of a mutually-referential pair
// wins and the second falls back to keep_root.
func dropCyclicMerges(merges []common.TopicMerge, hierarchy []common.TopicNode) {
	nameByID := make(map[string]string, len(hierarchy))
	for _, node := range hierarchy {
		nameByID[node.ID] = strings.ToLower(node.Name)
	}
	parents := make(map[string]string, len(hierarchy))
	for _, node := range hierarchy {
		if node.ParentID == "" {
			continue
		}
		if parentName, ok := nameByID[node.ParentID]; ok {
			parents[strings.ToLower(node.Name)] = parentName
		}
	}

	for i := range merges {
		merge := &merges[i]
		if merge.Action != common.MergeActionMakeChild &&
			merge.Action != common.MergeActionMerge {
			continue
		}
		topicKey := strings.ToLower(merge.Topic)
		targetKey := strings.ToLower(merge.TargetTopic)
		if ancestorsInclude(parents, targetKey, topicKey) {
			logger.Warn("[Reconciler] merge target sits below its own topic, keeping root",
				"topic", merge.Topic,
				"target", merge.TargetTopic,
				"action", merge.Action,
			)
			merge.Action = common.MergeActionKeepRoot
			merge.TargetTopic = ""
			continue
		}
		parents[topicKey] = targetKey
	}
}

// ancestorsInclude walks the parent chain up from start looking for
// topic. The walk is capped at the map size; a chain that never
// terminates is itself cyclic and counts as a hit.
func ancestorsInclude(parents map[string]string, start, topic string) bool {
	current := start
	for steps := 0; steps <= len(parents); steps++ {
		if current == topic {
			return true
		}
		next, ok := parents[current]
		if !ok {
			return false
		}
		current = next
	}
	return true
}

// sanitizeMerge validates one model verdict, falling back to keep_root for
// anything inconsistent: unknown actions, missing or unknown targets, and
// self-referential merges.
func sanitizeMerge(
	canonicalName string,
	result ai.TopicClassification,
	knownTopics map[string]bool,
) common.TopicMerge {
	merge := common.TopicMerge{
		Topic:      canonicalName,
		Action:     result.Action,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
	}

	switch result.Action {
	case common.MergeActionKeepRoot:
		return merge
	case common.MergeActionMakeChild, common.MergeActionMerge:
		targetKey := strings.ToLower(result.TargetTopic)
		if result.TargetTopic == "" ||
			targetKey == strings.ToLower(canonicalName) ||
			!knownTopics[targetKey] {
			merge.Action = common.MergeActionKeepRoot
			merge.TargetTopic = ""
			return merge
		}
		merge.TargetTopic = result.TargetTopic
		return merge
	default:
		merge.Action = common.MergeActionKeepRoot
		merge.TargetTopic = ""
		return merge
	}
}
