package graph

import (
	"context"
	"testing"

	"github.com/inquora/atlas/backend/pkg/ai"
	"github.com/inquora/atlas/backend/pkg/common"
)

func buildTopicSnapshot(t *testing.T, nodes []common.TopicNode, edges []common.TopicRelationship) *TopicSnapshot {
	t.Helper()
	st := &mockStore{topics: nodes, topicEdges: edges}
	snap, err := newTopicCache(st, 1).Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

// Server and worker run separate Engines over the same database. The
// version counter bumped inside the merge transaction is what carries
// the invalidation from one process to the other.
func TestTopicCacheSeesMergeFromAnotherProcess(t *testing.T) {
	st := &mockStore{topics: topicNodes("Databases", "Postgres")}
	server := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})
	worker := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	before, err := server.Collection(1).Topics.Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(before.Nodes) != 2 {
		t.Fatalf("topics before merge = %d, want 2", len(before.Nodes))
	}

	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			return []ai.TopicClassification{
				{Topic: "Postgres", Action: common.MergeActionMerge, TargetTopic: "Databases", Confidence: 0.9},
			}, nil
		},
	}
	if _, err := worker.ApplyHierarchyMerge(context.Background(), 1, client); err != nil {
		t.Fatal(err)
	}
	// The merge transaction collapsed the two topics in storage.
	st.topics = topicNodes("Databases")

	after, err := server.Collection(1).Topics.Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Nodes) != 1 {
		t.Errorf("server still serves %d topics after the worker's merge, want 1", len(after.Nodes))
	}
}

func TestTopicCacheRebuildsChildLists(t *testing.T) {
	nodes := []common.TopicNode{
		{ID: "root", Name: "Tech", Level: 0},
		{ID: "db", Name: "Databases", ParentID: "root", Level: 1},
		{ID: "pg", Name: "Postgres", ParentID: "db", Level: 2},
		// Stale child list that contradicts the parent pointers.
		{ID: "stray", Name: "Stray", ParentID: "root", Level: 1, ChildIDs: []string{"db"}},
	}
	snap := buildTopicSnapshot(t, nodes, nil)

	root := snap.NodeByID("root")
	if root == nil || len(root.ChildIDs) != 2 {
		t.Fatalf("root children = %+v, want db and stray", root)
	}
	if stray := snap.NodeByID("stray"); len(stray.ChildIDs) != 0 {
		t.Errorf("stale child list survived rebuild: %v", stray.ChildIDs)
	}
	if len(snap.HierarchyEdges) != 3 {
		t.Errorf("hierarchy edges = %d, want 3", len(snap.HierarchyEdges))
	}
}

func TestTopicCacheMissingParentBecomesRoot(t *testing.T) {
	nodes := []common.TopicNode{
		{ID: "a", Name: "Alpha", ParentID: "gone"},
	}
	snap := buildTopicSnapshot(t, nodes, nil)

	if got := snap.NodeByID("a").ParentID; got != "" {
		t.Errorf("parent = %q, want cleared", got)
	}
	if len(snap.HierarchyEdges) != 0 {
		t.Errorf("hierarchy edges = %d, want 0", len(snap.HierarchyEdges))
	}
}

func TestTopicCacheFiltersLateralEdges(t *testing.T) {
	nodes := []common.TopicNode{
		{ID: "root", Name: "Tech"},
		{ID: "db", Name: "Databases", ParentID: "root"},
		{ID: "ml", Name: "ML", ParentID: "root"},
		{ID: "cook", Name: "Cooking"},
	}
	edges := []common.TopicRelationship{
		{From: "db", To: "ml", Type: "related", Strength: 0.8},    // siblings, dropped
		{From: "db", To: "cook", Type: "related", Strength: 0.5},  // kept
		{From: "db", To: "db", Type: "related", Strength: 1},      // self, dropped
		{From: "db", To: "ghost", Type: "related", Strength: 0.9}, // unknown endpoint, dropped
	}
	snap := buildTopicSnapshot(t, nodes, edges)

	if len(snap.LateralEdges) != 1 {
		t.Fatalf("lateral edges = %d, want 1", len(snap.LateralEdges))
	}
	if edge := snap.LateralEdges[0]; edge.From != "db" || edge.To != "cook" {
		t.Errorf("kept edge = %+v, want db-cook", edge)
	}
}

func TestTopicMetrics(t *testing.T) {
	nodes := []common.TopicNode{
		{ID: "root", Name: "Tech", Level: 0},
		{ID: "db", Name: "Databases", ParentID: "root", Level: 1},
		{ID: "pg", Name: "Postgres", ParentID: "db", Level: 2},
		{ID: "iso", Name: "Isolated", Level: 0},
	}
	snap := buildTopicSnapshot(t, nodes, nil)

	byID := make(map[string]common.TopicMetrics)
	for _, m := range snap.Metrics {
		byID[m.TopicID] = m
	}

	if got := byID["root"].Descendants; got != 2 {
		t.Errorf("root descendants = %d, want 2", got)
	}
	if got := byID["db"].Descendants; got != 1 {
		t.Errorf("db descendants = %d, want 1", got)
	}
	if got := byID["iso"].Descendants; got != 0 {
		t.Errorf("iso descendants = %d, want 0", got)
	}

	// db carries the max degree (edge to root and to pg).
	if got := byID["db"].Importance; got != 1.0 {
		t.Errorf("db importance = %v, want 1.0", got)
	}
	if got := byID["iso"].Importance; got != 0.0 {
		t.Errorf("iso importance = %v, want 0.0", got)
	}
	for _, m := range snap.Metrics {
		if m.Rank <= 0 {
			t.Errorf("%s rank = %v, want > 0", m.TopicID, m.Rank)
		}
	}

	// Metrics are sorted by importance descending.
	for i := 1; i < len(snap.Metrics); i++ {
		if snap.Metrics[i].Importance > snap.Metrics[i-1].Importance {
			t.Error("metrics not sorted by importance")
			break
		}
	}
}

func TestTopicSnapshotLookups(t *testing.T) {
	snap := buildTopicSnapshot(t, []common.TopicNode{
		{ID: "t0", Name: "GraphRAG"},
	}, nil)

	if snap.NodeByName("graphrag") == nil {
		t.Error("case-insensitive name lookup failed")
	}
	if snap.NodeByID("t0") == nil {
		t.Error("ID lookup failed")
	}
	if snap.NodeByName("missing") != nil || snap.NodeByID("missing") != nil {
		t.Error("lookup of absent topic returned a node")
	}
}
