package graph

import (
	"testing"

	"github.com/inquora/atlas/backend/pkg/common"
)

func TestComputeEntityMetricsImportance(t *testing.T) {
	entities := []common.Entity{
		{Name: "A"}, {Name: "B"}, {Name: "C"},
		{Name: "D"}, {Name: "E"},
	}
	// A gets degree 4, B degree 2, C degree 0.
	relationships := []common.Relationship{
		{FromEntity: "A", ToEntity: "B"},
		{FromEntity: "A", ToEntity: "D"},
		{FromEntity: "A", ToEntity: "E"},
		{FromEntity: "B", ToEntity: "A"},
	}

	metrics := ComputeEntityMetrics(entities, relationships, nil)
	if len(metrics) != len(entities) {
		t.Fatalf("got %d metrics, want %d", len(metrics), len(entities))
	}

	byName := make(map[string]common.EntityMetrics, len(metrics))
	for _, m := range metrics {
		byName[m.Name] = m
	}

	if got := byName["A"].Importance; got != 1.0 {
		t.Errorf("A importance = %v, want 1.0", got)
	}
	if got := byName["B"].Importance; got != 0.5 {
		t.Errorf("B importance = %v, want 0.5", got)
	}
	if got := byName["C"].Importance; got != 0.0 {
		t.Errorf("C importance = %v, want 0.0", got)
	}

	for _, m := range metrics {
		if m.Importance < 0 || m.Importance > 1 {
			t.Errorf("%s importance = %v, out of [0,1]", m.Name, m.Importance)
		}
		if m.Size < minNodeSize || m.Size > maxNodeSize {
			t.Errorf("%s size = %v, out of [%d,%d]", m.Name, m.Size, minNodeSize, maxNodeSize)
		}
	}
}

func TestComputeEntityMetricsDegreeSum(t *testing.T) {
	entities := []common.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	relationships := []common.Relationship{
		{FromEntity: "A", ToEntity: "B"},
		{FromEntity: "B", ToEntity: "C"},
		{FromEntity: "C", ToEntity: "A"},
	}

	metrics := ComputeEntityMetrics(entities, relationships, nil)

	sum := 0
	for _, m := range metrics {
		sum += m.Degree
	}
	if want := 2 * len(relationships); sum != want {
		t.Errorf("degree sum = %d, want %d", sum, want)
	}
}

func TestComputeEntityMetricsUnknownEndpoints(t *testing.T) {
	entities := []common.Entity{{Name: "A"}, {Name: "B"}}
	relationships := []common.Relationship{
		{FromEntity: "A", ToEntity: "Ghost"},
		{FromEntity: "A", ToEntity: "B"},
	}

	metrics := ComputeEntityMetrics(entities, relationships, nil)

	byName := make(map[string]common.EntityMetrics)
	for _, m := range metrics {
		byName[m.Name] = m
	}
	// A is counted for both edges; the Ghost endpoint is skipped.
	if got := byName["A"].Degree; got != 2 {
		t.Errorf("A degree = %d, want 2", got)
	}
	if got := byName["B"].Degree; got != 1 {
		t.Errorf("B degree = %d, want 1", got)
	}
}

func TestComputeEntityMetricsCommunities(t *testing.T) {
	entities := []common.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	communities := []common.Community{
		{ID: "7", Entities: []string{"A", "B"}},
	}

	metrics := ComputeEntityMetrics(entities, nil, communities)

	byName := make(map[string]common.EntityMetrics)
	for _, m := range metrics {
		byName[m.Name] = m
	}
	if got := byName["A"].CommunityID; got != "7" {
		t.Errorf("A community = %q, want %q", got, "7")
	}
	if got := byName["C"].CommunityID; got != common.DefaultCommunityID {
		t.Errorf("C community = %q, want %q", got, common.DefaultCommunityID)
	}
}

func TestComputeEntityMetricsEmptyAndDuplicates(t *testing.T) {
	if got := ComputeEntityMetrics(nil, nil, nil); len(got) != 0 {
		t.Errorf("empty input produced %d metrics", len(got))
	}

	entities := []common.Entity{{Name: "A", Type: "first"}, {Name: "A", Type: "second"}}
	metrics := ComputeEntityMetrics(entities, nil, nil)
	if len(metrics) != 1 {
		t.Fatalf("got %d metrics for duplicate names, want 1", len(metrics))
	}
	if metrics[0].Type != "first" {
		t.Errorf("duplicate resolution kept %q, want first occurrence", metrics[0].Type)
	}
}
