package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
	"github.com/inquora/atlas/backend/pkg/store"

	"golang.org/x/sync/errgroup"
)

const (
	// maxRelatedTimelines caps how many co-occurrence neighbor timelines
	// are appended to the seed timelines.
	maxRelatedTimelines = 4

	// relatedTopicFetchLimit bounds the one-hop neighbor lookup.
	relatedTopicFetchLimit = 20

	parallelTimelineFetches = 4
)

// TimelineParams configures a topic activity timeline request.
type TimelineParams struct {
	Topics         []string
	IncludeRelated bool
	Limit          int
}

// TopicTimeline is the deduplicated, prioritized activity sequence of
// one topic.
type TopicTimeline struct {
	Topic         string            `json:"topic"`
	Activities    []common.Activity `json:"activities"`
	TotalActivity int               `json:"total_activity"`
}

// TimelineResult carries one timeline per processed topic, ordered by
// total activity descending. Every seed topic is always present, even
// with an empty timeline.
type TimelineResult struct {
	Timelines []TopicTimeline `json:"timelines"`
}

// BuildTimelines joins topic occurrences with their source documents into
// activity timelines. With IncludeRelated set, the processed topic set is
// the union of the seeds and their direct co-occurrence neighbors; seed
// timelines are always returned, neighbors only when they carry activity,
// capped at maxRelatedTimelines.
func BuildTimelines(ctx context.Context, st store.GraphStorage, collectionID int64, params TimelineParams) (*TimelineResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	seeds := make([]string, 0, len(params.Topics))
	seen := make(map[string]bool, len(params.Topics))
	for _, topic := range params.Topics {
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		seeds = append(seeds, topic)
	}
	if len(seeds) == 0 {
		return &TimelineResult{Timelines: []TopicTimeline{}}, nil
	}

	var related []string
	if params.IncludeRelated {
		neighbors, err := st.GetCoOccurringTopics(ctx, collectionID, seeds, relatedTopicFetchLimit)
		if err != nil {
			logger.Warn("[Timeline] Failed to load co-occurring topics", "err", err)
		} else {
			for _, topic := range neighbors {
				if !seen[topic] {
					seen[topic] = true
					related = append(related, topic)
				}
			}
		}
	}

	topics := append(append([]string{}, seeds...), related...)
	timelines := make([]TopicTimeline, len(topics))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelTimelineFetches)
	var mu sync.Mutex

	for i, topic := range topics {
		i, topic := i, topic
		eg.Go(func() error {
			activities, err := st.GetTopicActivities(gCtx, collectionID, topic, limit*2)
			if err != nil {
				return fmt.Errorf("failed to load activities for topic %q: %w", topic, err)
			}
			deduped := DedupeActivities(activities)
			if len(deduped) > limit {
				deduped = deduped[:limit]
			}

			mu.Lock()
			timelines[i] = TopicTimeline{
				Topic:         topic,
				Activities:    deduped,
				TotalActivity: len(deduped),
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	seedTimelines := timelines[:len(seeds)]
	neighborTimelines := timelines[len(seeds):]

	sort.SliceStable(neighborTimelines, func(i, j int) bool {
		return neighborTimelines[i].TotalActivity > neighborTimelines[j].TotalActivity
	})

	result := make([]TopicTimeline, 0, len(seeds)+maxRelatedTimelines)
	result = append(result, seedTimelines...)
	for _, timeline := range neighborTimelines {
		if timeline.TotalActivity == 0 || len(result) >= len(seeds)+maxRelatedTimelines {
			break
		}
		result = append(result, timeline)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalActivity > result[j].TotalActivity
	})

	return &TimelineResult{Timelines: result}, nil
}

// DedupeActivities collapses activities sharing (url, timestamp) down to
// the highest-priority activity type (bookmark > visit > extraction) and
// returns the survivors sorted descending by timestamp. The operation is
// idempotent.
func DedupeActivities(activities []common.Activity) []common.Activity {
	if len(activities) == 0 {
		return []common.Activity{}
	}

	best := make(map[string]common.Activity, len(activities))
	order := make([]string, 0, len(activities))
	for _, activity := range activities {
		key := activity.URL + "|" + activity.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		existing, ok := best[key]
		if !ok {
			best[key] = activity
			order = append(order, key)
			continue
		}
		if common.ActivityPriority(activity.Type) > common.ActivityPriority(existing.Type) {
			best[key] = activity
		}
	}

	deduped := make([]common.Activity, 0, len(best))
	for _, key := range order {
		deduped = append(deduped, best[key])
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Timestamp.After(deduped[j].Timestamp)
	})
	return deduped
}
