package common

import "time"

// Entity represents a node in the knowledge graph. An entity can be an
// organization, person, product, or any other concept extracted from
// captured documents. Name is the unique, case-sensitive canonical key
// within a collection.
type Entity struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
	Count       int     `json:"count"`
}

// EntityMetrics is an Entity enriched with derived display metrics.
// Metrics are recomputed wholesale on every cache rebuild and never
// mutated incrementally.
type EntityMetrics struct {
	Entity
	Degree      int     `json:"degree"`
	Importance  float64 `json:"importance"`
	CommunityID string  `json:"community_id"`
	Size        float64 `json:"size"`
}

// Relationship represents an edge between two entities. FromEntity and
// ToEntity reference Entity.Name; edges whose endpoints are missing from
// the entity set are tolerated and logged, not rejected.
type Relationship struct {
	FromEntity string   `json:"from_entity"`
	ToEntity   string   `json:"to_entity"`
	Type       string   `json:"relationship_type"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
	Count      int      `json:"count"`
}

// Community is a pre-computed cluster label produced by an external
// community-detection process. It is only used to stamp CommunityID
// onto entity metrics.
type Community struct {
	ID       string   `json:"id"`
	Entities []string `json:"entities"`
}

// TopicNode is one node of the hierarchical topic forest. ParentID is
// empty for roots. ParentID and ChildIDs must stay mutually consistent;
// the hierarchy reconciler is the only writer that changes the structure
// after construction.
type TopicNode struct {
	ID             string   `json:"topic_id"`
	Name           string   `json:"topic_name"`
	ParentID       string   `json:"parent_topic_id,omitempty"`
	Level          int      `json:"level"`
	Confidence     float64  `json:"confidence"`
	SourceOrdinals []int    `json:"source_ref_ordinals,omitempty"`
	ChildIDs       []string `json:"child_ids,omitempty"`
}

// TopicRelationship is a lateral (non-hierarchical) edge between two
// topics, derived independently of the parent/child forest.
type TopicRelationship struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}

// TopicMetrics holds the derived importance metrics for one topic.
type TopicMetrics struct {
	TopicID     string  `json:"topic_id"`
	Name        string  `json:"topic_name"`
	Level       int     `json:"level"`
	Degree      int     `json:"degree"`
	Importance  float64 `json:"importance"`
	Rank        float64 `json:"rank"`
	Descendants int     `json:"descendants"`
	Size        float64 `json:"size"`
}

// Activity types, in deduplication priority order. When two activities
// share the same (url, timestamp), the higher-priority type survives.
const (
	ActivityBookmark   = "bookmark"
	ActivityVisit      = "visit"
	ActivityExtraction = "extraction"
)

// ActivityPriority returns the dedup priority of an activity type.
// Unknown types rank below extraction.
func ActivityPriority(activityType string) int {
	switch activityType {
	case ActivityBookmark:
		return 3
	case ActivityVisit:
		return 2
	case ActivityExtraction:
		return 1
	default:
		return 0
	}
}

// Activity is one dated occurrence of a topic on a source document.
type Activity struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is a captured source document from the content store.
type Document struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Domain     string    `json:"domain,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Topic merge actions produced by the hierarchy classification run.
const (
	MergeActionKeepRoot  = "keep_root"
	MergeActionMakeChild = "make_child"
	MergeActionMerge     = "merge"
)

// TopicMerge is one accepted hierarchy change for a topic: keep it as a
// root, re-parent it under TargetTopic, or merge it into TargetTopic.
type TopicMerge struct {
	Topic       string  `json:"topic"`
	Action      string  `json:"action"`
	TargetTopic string  `json:"target_topic,omitempty"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"`
}
