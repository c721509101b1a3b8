package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/inquora/atlas/backend/pkg/common"
)

// ImportanceLayerParams configures the global importance layer.
type ImportanceLayerParams struct {
	MaxNodes            int
	IncludeConnectivity bool
}

// ComponentSummary describes the connected components of the selected
// subgraph.
type ComponentSummary struct {
	Count       int     `json:"component_count"`
	LargestSize int     `json:"largest_size"`
	AverageSize float64 `json:"average_size"`
}

// ImportanceLayerResult carries the downsampled node and edge sets plus
// the selection metadata.
type ImportanceLayerResult struct {
	Nodes         []common.EntityMetrics `json:"nodes"`
	Relationships []common.Relationship  `json:"relationships"`

	TotalEntities int               `json:"total_entities"`
	SelectedCount int               `json:"selected_count"`
	CoveragePct   float64           `json:"coverage_pct"`
	Threshold     float64           `json:"importance_threshold"`
	Components    *ComponentSummary `json:"connected_components,omitempty"`
}

// ImportanceLayer returns the top-MaxNodes entities by importance plus
// every relationship with both endpoints selected. The sort is stable so
// ties keep their snapshot order and repeated calls return the same
// layer.
//
// When IncludeConnectivity is set, the connected components of the
// selected subgraph are summarized in the metadata. Connectivity is
// requested, not guaranteed: disconnected components are reported
// truthfully and no bridge nodes are added.
func ImportanceLayer(ctx context.Context, snap *Snapshot, params ImportanceLayerParams) (*ImportanceLayerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxNodes := params.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 50
	}

	ranked := make([]common.EntityMetrics, len(snap.Metrics))
	copy(ranked, snap.Metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	if len(ranked) > maxNodes {
		ranked = ranked[:maxNodes]
	}

	selected := make(map[string]bool, len(ranked))
	for _, node := range ranked {
		selected[strings.ToLower(node.Name)] = true
	}

	result := &ImportanceLayerResult{
		Nodes:         ranked,
		Relationships: inducedEdges(snap.Relationships, selected),
		TotalEntities: len(snap.Metrics),
		SelectedCount: len(ranked),
	}
	if result.TotalEntities > 0 {
		result.CoveragePct = float64(result.SelectedCount) / float64(result.TotalEntities) * 100
	}
	if len(ranked) > 0 {
		result.Threshold = ranked[len(ranked)-1].Importance
	}

	if params.IncludeConnectivity {
		result.Components = summarizeComponents(ranked, result.Relationships)
	}

	return result, nil
}

// summarizeComponents computes connected components over the selected
// subset with an undirected depth-first search on an adjacency list built
// only from edges where both endpoints are selected.
func summarizeComponents(nodes []common.EntityMetrics, edges []common.Relationship) *ComponentSummary {
	if len(nodes) == 0 {
		return &ComponentSummary{}
	}

	adjacency := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		adjacency[strings.ToLower(node.Name)] = nil
	}
	for _, edge := range edges {
		from := strings.ToLower(edge.FromEntity)
		to := strings.ToLower(edge.ToEntity)
		adjacency[from] = append(adjacency[from], to)
		adjacency[to] = append(adjacency[to], from)
	}

	visited := make(map[string]bool, len(nodes))
	summary := &ComponentSummary{}
	total := 0

	for _, node := range nodes {
		start := strings.ToLower(node.Name)
		if visited[start] {
			continue
		}

		size := 0
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			for _, neighbor := range adjacency[current] {
				if !visited[neighbor] {
					visited[neighbor] = true
					stack = append(stack, neighbor)
				}
			}
		}

		summary.Count++
		total += size
		if size > summary.LargestSize {
			summary.LargestSize = size
		}
	}

	if summary.Count > 0 {
		summary.AverageSize = float64(total) / float64(summary.Count)
	}
	return summary
}
