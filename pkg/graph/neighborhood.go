package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/inquora/atlas/backend/pkg/common"
)

// ErrEntityNotFound is returned when the requested center entity has no
// case-insensitive match in the cached graph. Callers fall back to the
// broader similarity search before reporting not-found.
var ErrEntityNotFound = errors.New("entity not found in graph")

// NeighborhoodParams bounds a single-entity BFS. MaxDepth is the hop
// bound (0 returns only the center); MaxNodes caps the neighbor count,
// excluding the center.
type NeighborhoodParams struct {
	Center   string
	MaxDepth int
	MaxNodes int
}

// NeighborhoodResult is the center, its selected neighbors, and the full
// induced edge set on the selected node set.
type NeighborhoodResult struct {
	Center        common.EntityMetrics   `json:"center"`
	Neighbors     []common.EntityMetrics `json:"neighbors"`
	Relationships []common.Relationship  `json:"relationships"`
}

type adjacencyEdge struct {
	neighbor string // lower-cased
	rel      *common.Relationship
}

// buildAdjacency keys the adjacency map by lower-cased entity name so
// traversal matches entities case-insensitively.
func buildAdjacency(relationships []common.Relationship) map[string][]adjacencyEdge {
	adjacency := make(map[string][]adjacencyEdge)
	for i := range relationships {
		rel := &relationships[i]
		from := strings.ToLower(rel.FromEntity)
		to := strings.ToLower(rel.ToEntity)
		if from == "" || to == "" || from == to {
			continue
		}
		adjacency[from] = append(adjacency[from], adjacencyEdge{neighbor: to, rel: rel})
		adjacency[to] = append(adjacency[to], adjacencyEdge{neighbor: from, rel: rel})
	}
	return adjacency
}

// Neighborhood runs a bounded BFS from the center entity over the cached
// adjacency, then adds peer edges between selected neighbors so the
// returned edge set is the induced subgraph on {center} ∪ neighbors,
// not merely the BFS tree.
func Neighborhood(ctx context.Context, snap *Snapshot, params NeighborhoodParams) (*NeighborhoodResult, error) {
	center := snap.MetricsByName(params.Center)
	if center == nil {
		return nil, ErrEntityNotFound
	}

	maxNodes := params.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 25
	}

	adjacency := buildAdjacency(snap.Relationships)
	centerKey := strings.ToLower(center.Name)

	visited := map[string]bool{centerKey: true}
	selected := make([]string, 0, maxNodes)

	type queueItem struct {
		name  string
		depth int
	}
	queue := []queueItem{{name: centerKey, depth: 0}}

	for len(queue) > 0 && len(selected) < maxNodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := queue[0]
		queue = queue[1:]

		if item.depth >= params.MaxDepth {
			continue
		}

		for _, edge := range adjacency[item.name] {
			if visited[edge.neighbor] {
				continue
			}
			if snap.MetricsByName(edge.neighbor) == nil {
				// Edge endpoint missing from the entity set; tolerated.
				continue
			}
			visited[edge.neighbor] = true
			selected = append(selected, edge.neighbor)
			queue = append(queue, queueItem{name: edge.neighbor, depth: item.depth + 1})
			if len(selected) >= maxNodes {
				break
			}
		}
	}

	neighbors := make([]common.EntityMetrics, 0, len(selected))
	for _, name := range selected {
		neighbors = append(neighbors, *snap.MetricsByName(name))
	}

	return &NeighborhoodResult{
		Center:        *center,
		Neighbors:     neighbors,
		Relationships: inducedEdges(snap.Relationships, visited),
	}, nil
}

// inducedEdges returns every relationship whose endpoints are both in the
// selected set, deduplicated by undirected endpoint pair and type, with
// display source lists deduplicated and capped.
func inducedEdges(relationships []common.Relationship, selected map[string]bool) []common.Relationship {
	seen := make(map[string]bool)
	edges := make([]common.Relationship, 0)

	for _, rel := range relationships {
		from := strings.ToLower(rel.FromEntity)
		to := strings.ToLower(rel.ToEntity)
		if !selected[from] || !selected[to] {
			continue
		}

		key := from + "|" + to + "|" + rel.Type
		if to < from {
			key = to + "|" + from + "|" + rel.Type
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		rel.Sources = common.DedupeSources(rel.Sources)
		edges = append(edges, rel)
	}

	return edges
}
