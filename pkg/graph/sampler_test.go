package graph

import (
	"context"
	"testing"

	"github.com/inquora/atlas/backend/pkg/common"
)

func TestImportanceLayerSelection(t *testing.T) {
	// Hub has degree 3, Mid 2, the leaves 1 each.
	entities := []common.Entity{
		{Name: "Hub"}, {Name: "Mid"}, {Name: "L1"}, {Name: "L2"}, {Name: "L3"},
	}
	relationships := []common.Relationship{
		{FromEntity: "Hub", ToEntity: "L1", Type: "related"},
		{FromEntity: "Hub", ToEntity: "L2", Type: "related"},
		{FromEntity: "Hub", ToEntity: "Mid", Type: "related"},
		{FromEntity: "Mid", ToEntity: "L3", Type: "related"},
	}
	snap := buildSnapshot(t, entities, relationships)

	result, err := ImportanceLayer(context.Background(), snap, ImportanceLayerParams{MaxNodes: 2})
	if err != nil {
		t.Fatal(err)
	}

	if result.SelectedCount != 2 || len(result.Nodes) != 2 {
		t.Fatalf("selected = %d, want 2", result.SelectedCount)
	}
	if result.Nodes[0].Name != "Hub" || result.Nodes[1].Name != "Mid" {
		t.Errorf("selection = %s, %s; want Hub, Mid", result.Nodes[0].Name, result.Nodes[1].Name)
	}
	if result.TotalEntities != 5 {
		t.Errorf("total = %d, want 5", result.TotalEntities)
	}
	if result.CoveragePct != 40 {
		t.Errorf("coverage = %v, want 40", result.CoveragePct)
	}
	if result.Threshold != result.Nodes[1].Importance {
		t.Errorf("threshold = %v, want importance of lowest selected node %v",
			result.Threshold, result.Nodes[1].Importance)
	}
	// Hub-Mid is the only edge inside the selection.
	if len(result.Relationships) != 1 {
		t.Errorf("edges = %d, want 1", len(result.Relationships))
	}
}

func TestImportanceLayerDisconnectedComponents(t *testing.T) {
	// Two separate hubs of equal degree; selecting the top 2 yields two
	// disconnected components and no bridge nodes are added.
	entities := []common.Entity{
		{Name: "HubA"}, {Name: "HubB"}, {Name: "A1"}, {Name: "A2"}, {Name: "B1"},
	}
	relationships := []common.Relationship{
		{FromEntity: "HubA", ToEntity: "A1", Type: "related"},
		{FromEntity: "HubA", ToEntity: "A2", Type: "related"},
		{FromEntity: "HubB", ToEntity: "B1", Type: "related"},
		{FromEntity: "HubB", ToEntity: "A2", Type: "related"},
	}
	snap := buildSnapshot(t, entities, relationships)

	result, err := ImportanceLayer(context.Background(), snap, ImportanceLayerParams{
		MaxNodes:            2,
		IncludeConnectivity: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Nodes) != 2 {
		t.Fatalf("selected = %d, want 2", len(result.Nodes))
	}
	if result.Components == nil {
		t.Fatal("connectivity requested but no component summary returned")
	}
	if result.Components.Count != 2 {
		t.Errorf("components = %d, want 2", result.Components.Count)
	}
	if result.Components.LargestSize != 1 || result.Components.AverageSize != 1 {
		t.Errorf("component sizes = %d largest / %v avg, want 1 / 1",
			result.Components.LargestSize, result.Components.AverageSize)
	}
	// Disconnection is reported, not repaired.
	if len(result.Nodes) > 2 {
		t.Error("bridge nodes were added to the selection")
	}
}

func TestImportanceLayerStableOrder(t *testing.T) {
	entities := []common.Entity{{Name: "X"}, {Name: "Y"}, {Name: "Z"}}
	relationships := []common.Relationship{
		{FromEntity: "X", ToEntity: "Y", Type: "related"},
	}
	snap := buildSnapshot(t, entities, relationships)

	first, err := ImportanceLayer(context.Background(), snap, ImportanceLayerParams{MaxNodes: 2})
	if err != nil {
		t.Fatal(err)
	}
	second, err := ImportanceLayer(context.Background(), snap, ImportanceLayerParams{MaxNodes: 2})
	if err != nil {
		t.Fatal(err)
	}

	for i := range first.Nodes {
		if first.Nodes[i].Name != second.Nodes[i].Name {
			t.Errorf("position %d differs between runs: %s vs %s",
				i, first.Nodes[i].Name, second.Nodes[i].Name)
		}
	}
	// X and Y tie on importance; snapshot order breaks the tie.
	if first.Nodes[0].Name != "X" || first.Nodes[1].Name != "Y" {
		t.Errorf("tie-break order = %s, %s; want X, Y", first.Nodes[0].Name, first.Nodes[1].Name)
	}
}

func TestImportanceLayerEmptySnapshot(t *testing.T) {
	snap := buildSnapshot(t, nil, nil)

	result, err := ImportanceLayer(context.Background(), snap, ImportanceLayerParams{
		MaxNodes:            10,
		IncludeConnectivity: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Nodes) != 0 || result.CoveragePct != 0 || result.Threshold != 0 {
		t.Errorf("unexpected result for empty snapshot: %+v", result)
	}
	if result.Components.Count != 0 {
		t.Errorf("components = %d, want 0", result.Components.Count)
	}
}
