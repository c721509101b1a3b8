package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/inquora/atlas/backend/pkg/common"
)

func buildSnapshot(t *testing.T, entities []common.Entity, relationships []common.Relationship) *Snapshot {
	t.Helper()
	st := &mockStore{entities: entities, relationships: relationships}
	snap, err := newCache(st, 1, 1000).Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestNeighborhoodBFS(t *testing.T) {
	// A - B - C - D chain plus a peer edge B - E and E - C.
	entities := []common.Entity{
		{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"},
	}
	relationships := []common.Relationship{
		{FromEntity: "A", ToEntity: "B", Type: "related"},
		{FromEntity: "B", ToEntity: "C", Type: "related"},
		{FromEntity: "C", ToEntity: "D", Type: "related"},
		{FromEntity: "B", ToEntity: "E", Type: "related"},
		{FromEntity: "E", ToEntity: "C", Type: "related"},
	}
	snap := buildSnapshot(t, entities, relationships)

	tests := []struct {
		name          string
		params        NeighborhoodParams
		wantNeighbors int
		wantEdges     int
	}{
		{
			name:          "depth zero returns only the center",
			params:        NeighborhoodParams{Center: "A", MaxDepth: 0, MaxNodes: 10},
			wantNeighbors: 0,
			wantEdges:     0,
		},
		{
			name:          "one hop",
			params:        NeighborhoodParams{Center: "A", MaxDepth: 1, MaxNodes: 10},
			wantNeighbors: 1, // B
			wantEdges:     1,
		},
		{
			name:          "two hops picks up peer edge E-C",
			params:        NeighborhoodParams{Center: "A", MaxDepth: 2, MaxNodes: 10},
			wantNeighbors: 3, // B, C, E
			wantEdges:     4, // A-B, B-C, B-E, E-C
		},
		{
			name:          "node cap respected",
			params:        NeighborhoodParams{Center: "A", MaxDepth: 3, MaxNodes: 2},
			wantNeighbors: 2,
			wantEdges:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Neighborhood(context.Background(), snap, tt.params)
			if err != nil {
				t.Fatal(err)
			}
			if result.Center.Name != "A" {
				t.Errorf("center = %q, want A", result.Center.Name)
			}
			if len(result.Neighbors) != tt.wantNeighbors {
				t.Errorf("neighbors = %d, want %d", len(result.Neighbors), tt.wantNeighbors)
			}
			if len(result.Neighbors) > tt.params.MaxNodes {
				t.Errorf("neighbor count %d exceeds MaxNodes %d", len(result.Neighbors), tt.params.MaxNodes)
			}
			if len(result.Relationships) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(result.Relationships), tt.wantEdges)
			}

			// Every returned edge must connect selected nodes.
			selected := map[string]bool{"a": true}
			for _, n := range result.Neighbors {
				selected[strings.ToLower(n.Name)] = true
			}
			for _, rel := range result.Relationships {
				if !selected[strings.ToLower(rel.FromEntity)] || !selected[strings.ToLower(rel.ToEntity)] {
					t.Errorf("edge %s-%s leaves the selected set", rel.FromEntity, rel.ToEntity)
				}
			}
		})
	}
}

func TestNeighborhoodInducedEdges(t *testing.T) {
	entities := []common.Entity{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	relationships := []common.Relationship{
		{FromEntity: "A", ToEntity: "B", Type: "related"},
		{FromEntity: "A", ToEntity: "C", Type: "related"},
		{FromEntity: "B", ToEntity: "C", Type: "related"},
	}
	snap := buildSnapshot(t, entities, relationships)

	result, err := Neighborhood(context.Background(), snap, NeighborhoodParams{
		Center: "A", MaxDepth: 1, MaxNodes: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	// B and C are both reached in one hop; the B-C peer edge must be
	// included even though BFS never traverses it.
	if len(result.Relationships) != 3 {
		t.Errorf("edges = %d, want 3 (induced subgraph, not BFS tree)", len(result.Relationships))
	}
}

func TestNeighborhoodCaseInsensitiveCenter(t *testing.T) {
	entities := []common.Entity{{Name: "GraphQL"}, {Name: "REST"}}
	relationships := []common.Relationship{
		{FromEntity: "GraphQL", ToEntity: "REST", Type: "compares"},
	}
	snap := buildSnapshot(t, entities, relationships)

	result, err := Neighborhood(context.Background(), snap, NeighborhoodParams{
		Center: "graphql", MaxDepth: 1, MaxNodes: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Center.Name != "GraphQL" {
		t.Errorf("center = %q, want canonical name GraphQL", result.Center.Name)
	}
	if len(result.Neighbors) != 1 {
		t.Errorf("neighbors = %d, want 1", len(result.Neighbors))
	}
}

func TestNeighborhoodNotFound(t *testing.T) {
	snap := buildSnapshot(t, []common.Entity{{Name: "A"}}, nil)

	_, err := Neighborhood(context.Background(), snap, NeighborhoodParams{
		Center: "missing", MaxDepth: 1, MaxNodes: 5,
	})
	if !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("err = %v, want ErrEntityNotFound", err)
	}
}

func TestNeighborhoodCanceledContext(t *testing.T) {
	entities := []common.Entity{{Name: "A"}, {Name: "B"}}
	relationships := []common.Relationship{
		{FromEntity: "A", ToEntity: "B", Type: "related"},
	}
	snap := buildSnapshot(t, entities, relationships)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Neighborhood(ctx, snap, NeighborhoodParams{Center: "A", MaxDepth: 2, MaxNodes: 5}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
