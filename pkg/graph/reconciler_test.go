package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/inquora/atlas/backend/pkg/ai"
	"github.com/inquora/atlas/backend/pkg/common"
)

// mockAIClient satisfies ai.GraphAIClient with a scripted classification
// response per prompt.
type mockAIClient struct {
	classify func(prompt string) ([]ai.TopicClassification, error)
}

func (m *mockAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (m *mockAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	results, err := m.classify(prompt)
	if err != nil {
		return err
	}
	response, ok := out.(*ai.TopicClassificationResponse)
	if !ok {
		return errors.New("unexpected output type")
	}
	response.Classifications = results
	return nil
}

func (m *mockAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, nil
}

func (m *mockAIClient) ResetMetrics()                {}
func (m *mockAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func topicNodes(names ...string) []common.TopicNode {
	nodes := make([]common.TopicNode, 0, len(names))
	for i, name := range names {
		nodes = append(nodes, common.TopicNode{
			ID:   fmt.Sprintf("t%d", i),
			Name: name,
		})
	}
	return nodes
}

func mergeByTopic(report *MergeReport) map[string]common.TopicMerge {
	out := make(map[string]common.TopicMerge, len(report.Merges))
	for _, merge := range report.Merges {
		out[merge.Topic] = merge
	}
	return out
}

func TestPreviewHierarchyMergeDoesNotMutate(t *testing.T) {
	st := &mockStore{topics: topicNodes("Databases", "Postgres", "Cooking")}
	engine := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			return []ai.TopicClassification{
				{Topic: "Databases", Action: common.MergeActionKeepRoot, Confidence: 0.9},
				{Topic: "Postgres", Action: common.MergeActionMakeChild, TargetTopic: "Databases", Confidence: 0.95},
			}, nil
		},
	}

	report, err := engine.PreviewHierarchyMerge(context.Background(), 1, client)
	if err != nil {
		t.Fatal(err)
	}

	if report.Applied {
		t.Error("preview reported as applied")
	}
	if len(st.appliedMerges) != 0 {
		t.Errorf("preview wrote %d merges to the store", len(st.appliedMerges))
	}
	if report.TotalTopics != 3 {
		t.Errorf("total topics = %d, want 3", report.TotalTopics)
	}

	merges := mergeByTopic(report)
	if got := merges["Postgres"]; got.Action != common.MergeActionMakeChild || got.TargetTopic != "Databases" {
		t.Errorf("Postgres merge = %+v", got)
	}
	// Unclassified topics default to keep_root.
	if got := merges["Cooking"]; got.Action != common.MergeActionKeepRoot {
		t.Errorf("Cooking action = %q, want keep_root", got.Action)
	}
}

func TestApplyHierarchyMergeCommitsAndInvalidates(t *testing.T) {
	st := &mockStore{
		entities: []common.Entity{{Name: "A"}},
		topics:   topicNodes("Databases", "Postgres"),
	}
	engine := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	// Warm the entity cache so invalidation is observable.
	if _, err := engine.Collection(1).Graph.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}

	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			return []ai.TopicClassification{
				{Topic: "Postgres", Action: common.MergeActionMerge, TargetTopic: "Databases", Confidence: 0.8},
			}, nil
		},
	}

	report, err := engine.ApplyHierarchyMerge(context.Background(), 1, client)
	if err != nil {
		t.Fatal(err)
	}

	if !report.Applied {
		t.Error("apply run not marked applied")
	}
	if report.RunID == "" {
		t.Error("missing run id")
	}
	if len(st.appliedMerges) != 2 {
		t.Errorf("store received %d merges, want 2", len(st.appliedMerges))
	}
	if engine.Collection(1).Graph.Status().Valid {
		t.Error("entity cache still valid after merge application")
	}
	if engine.Collection(1).Topics.Status().Valid {
		t.Error("topic cache still valid after merge application")
	}
}

func TestReconcilerSanitizesInvalidVerdicts(t *testing.T) {
	st := &mockStore{topics: topicNodes("Alpha", "Beta", "Gamma", "Delta")}
	engine := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			return []ai.TopicClassification{
				// Unknown action.
				{Topic: "Alpha", Action: "promote"},
				// Target missing from the hierarchy.
				{Topic: "Beta", Action: common.MergeActionMerge, TargetTopic: "Nonexistent"},
				// Self-referential merge.
				{Topic: "Gamma", Action: common.MergeActionMakeChild, TargetTopic: "gamma"},
				// Topic that was never requested.
				{Topic: "Intruder", Action: common.MergeActionKeepRoot},
			}, nil
		},
	}

	report, err := engine.PreviewHierarchyMerge(context.Background(), 1, client)
	if err != nil {
		t.Fatal(err)
	}

	if report.TotalTopics != 4 {
		t.Errorf("total topics = %d, want 4", report.TotalTopics)
	}
	merges := mergeByTopic(report)
	if _, ok := merges["Intruder"]; ok {
		t.Error("verdict for a topic outside the batch was kept")
	}
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		merge := merges[name]
		if merge.Action != common.MergeActionKeepRoot {
			t.Errorf("%s action = %q, want keep_root", name, merge.Action)
		}
		if merge.TargetTopic != "" {
			t.Errorf("%s kept target %q after sanitization", name, merge.TargetTopic)
		}
	}
}

func TestReconcilerRejectsMutualReparenting(t *testing.T) {
	st := &mockStore{topics: topicNodes("Alpha", "Beta")}
	engine := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	// Each topic names the other as its parent. Accepting both would
	// create a two-node parent cycle.
	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			return []ai.TopicClassification{
				{Topic: "Alpha", Action: common.MergeActionMakeChild, TargetTopic: "Beta", Confidence: 0.9},
				{Topic: "Beta", Action: common.MergeActionMakeChild, TargetTopic: "Alpha", Confidence: 0.9},
			}, nil
		},
	}

	report, err := engine.PreviewHierarchyMerge(context.Background(), 1, client)
	if err != nil {
		t.Fatal(err)
	}

	merges := mergeByTopic(report)
	if got := merges["Alpha"]; got.Action != common.MergeActionMakeChild || got.TargetTopic != "Beta" {
		t.Errorf("Alpha merge = %+v, want make_child under Beta", got)
	}
	got := merges["Beta"]
	if got.Action != common.MergeActionKeepRoot {
		t.Errorf("Beta action = %q, want keep_root", got.Action)
	}
	if got.TargetTopic != "" {
		t.Errorf("Beta kept target %q after cycle rejection", got.TargetTopic)
	}
}

func TestReconcilerRejectsReparentingUnderDescendant(t *testing.T) {
	// Child is already stored under Root; moving Root under Grandchild
	// would close a cycle through the existing parent chain.
	st := &mockStore{topics: []common.TopicNode{
		{ID: "t0", Name: "Root"},
		{ID: "t1", Name: "Child", ParentID: "t0"},
		{ID: "t2", Name: "Grandchild", ParentID: "t1"},
	}}
	engine := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			return []ai.TopicClassification{
				{Topic: "Root", Action: common.MergeActionMerge, TargetTopic: "Grandchild", Confidence: 0.8},
			}, nil
		},
	}

	report, err := engine.PreviewHierarchyMerge(context.Background(), 1, client)
	if err != nil {
		t.Fatal(err)
	}

	merges := mergeByTopic(report)
	got := merges["Root"]
	if got.Action != common.MergeActionKeepRoot {
		t.Errorf("Root action = %q, want keep_root", got.Action)
	}
	if got.TargetTopic != "" {
		t.Errorf("Root kept target %q after cycle rejection", got.TargetTopic)
	}
}

func TestReconcilerFailedBatchIsIsolated(t *testing.T) {
	// 60 topics split into a batch of 50 and a batch of 10. The first
	// batch fails; its topics default to keep_root and the run continues.
	names := make([]string, 0, 60)
	for i := 0; i < 50; i++ {
		names = append(names, fmt.Sprintf("bad-%d", i))
	}
	for i := 0; i < 10; i++ {
		names = append(names, fmt.Sprintf("good-%d", i))
	}

	st := &mockStore{topics: topicNodes(names...)}
	engine := NewEngine(NewEngineParams{Store: st, MaxRetries: 1})

	calls := 0
	client := &mockAIClient{
		classify: func(prompt string) ([]ai.TopicClassification, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("model unavailable")
			}
			if !strings.Contains(prompt, "good-0") {
				return nil, errors.New("unexpected batch")
			}
			return []ai.TopicClassification{
				{Topic: "good-0", Action: common.MergeActionMakeChild, TargetTopic: "bad-1", Confidence: 0.7},
			}, nil
		},
	}

	report, err := engine.PreviewHierarchyMerge(context.Background(), 1, client)
	if err != nil {
		t.Fatal(err)
	}

	if report.FailedBatches != 1 {
		t.Errorf("failed batches = %d, want 1", report.FailedBatches)
	}
	if report.TotalTopics != 60 {
		t.Errorf("total topics = %d, want 60", report.TotalTopics)
	}
	if report.Classified != 1 {
		t.Errorf("classified = %d, want 1", report.Classified)
	}

	merges := mergeByTopic(report)
	if got := merges["bad-7"]; got.Action != common.MergeActionKeepRoot {
		t.Errorf("failed-batch topic action = %q, want keep_root", got.Action)
	}
	if got := merges["good-0"]; got.Action != common.MergeActionMakeChild {
		t.Errorf("good-0 action = %q, want make_child", got.Action)
	}
	for _, merge := range report.Merges {
		switch merge.Action {
		case common.MergeActionKeepRoot, common.MergeActionMakeChild, common.MergeActionMerge:
		default:
			t.Errorf("invalid action %q for %s", merge.Action, merge.Topic)
		}
	}
}
