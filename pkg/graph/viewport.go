package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/inquora/atlas/backend/pkg/common"
)

// globalTopUpFraction bounds how much of the result may be filled with
// globally important nodes that the expansion did not reach.
const globalTopUpFraction = 0.10

// ViewportParams configures a multi-anchor neighborhood expansion.
//
// Anchors are the entity names currently visible in the viewport. When
// ExpandFromAnchors is false the expansion starts from Center only.
// MinHops gates admission: nodes closer than MinHops to a seed are
// traversed but not added, which keeps already-visible nodes from being
// re-surfaced. When WeightByImportance is false, candidates are ranked
// by the confidence of the edge that discovered them instead.
type ViewportParams struct {
	Center             string
	Anchors            []string
	MaxNodes           int
	MinHops            int
	WeightByImportance bool
	ExpandFromAnchors  bool
	IncludeGlobalNodes bool
}

// ViewportResult carries the newly admitted nodes and the induced edge
// set over seeds and admitted nodes together, so the grown view stays
// connected to what is already on screen.
type ViewportResult struct {
	Nodes         []common.EntityMetrics `json:"nodes"`
	Relationships []common.Relationship  `json:"relationships"`
}

type viewportCandidate struct {
	name  string // lower-cased
	hop   int
	score float64
}

// ViewportExpand grows an interactive graph view outward from all anchors
// simultaneously, admitting higher-scored neighbors first. The candidate
// list is re-sorted after each expansion step, so a freshly discovered
// high-importance neighbor is taken before older low-importance ones.
// Terminates when the candidate queue is exhausted or MaxNodes nodes
// have been admitted.
func ViewportExpand(ctx context.Context, snap *Snapshot, params ViewportParams) (*ViewportResult, error) {
	maxNodes := params.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 30
	}

	seeds := make([]string, 0, len(params.Anchors)+1)
	if params.ExpandFromAnchors {
		seeds = append(seeds, params.Anchors...)
	}
	if params.Center != "" {
		seeds = append(seeds, params.Center)
	}

	adjacency := buildAdjacency(snap.Relationships)

	visited := make(map[string]bool)
	var frontier []viewportCandidate
	for _, seed := range seeds {
		metrics := snap.MetricsByName(seed)
		if metrics == nil {
			continue
		}
		key := strings.ToLower(metrics.Name)
		if visited[key] {
			continue
		}
		visited[key] = true
		frontier = append(frontier, viewportCandidate{name: key, hop: 0, score: metrics.Importance})
	}

	admitted := make([]string, 0, maxNodes)
	seedSet := make(map[string]bool, len(frontier))
	for _, c := range frontier {
		seedSet[c.name] = true
	}

	for len(frontier) > 0 && len(admitted) < maxNodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sort.SliceStable(frontier, func(i, j int) bool {
			return frontier[i].score > frontier[j].score
		})

		current := frontier[0]
		frontier = frontier[1:]

		if !seedSet[current.name] && current.hop >= params.MinHops {
			admitted = append(admitted, current.name)
			if len(admitted) >= maxNodes {
				break
			}
		}

		for _, edge := range adjacency[current.name] {
			if visited[edge.neighbor] {
				continue
			}
			metrics := snap.MetricsByName(edge.neighbor)
			if metrics == nil {
				continue
			}
			visited[edge.neighbor] = true

			score := metrics.Importance
			if !params.WeightByImportance {
				score = edge.rel.Confidence
			}
			frontier = append(frontier, viewportCandidate{
				name:  edge.neighbor,
				hop:   current.hop + 1,
				score: score,
			})
		}
	}

	if params.IncludeGlobalNodes {
		admitted = topUpWithGlobalNodes(snap, admitted, visited, maxNodes)
	}

	selected := make(map[string]bool, len(admitted)+len(seedSet))
	for name := range seedSet {
		selected[name] = true
	}
	nodes := make([]common.EntityMetrics, 0, len(admitted))
	for _, name := range admitted {
		selected[name] = true
		nodes = append(nodes, *snap.MetricsByName(name))
	}

	return &ViewportResult{
		Nodes:         nodes,
		Relationships: inducedEdges(snap.Relationships, selected),
	}, nil
}

// topUpWithGlobalNodes adds a small fraction of globally important nodes
// not already included, keeping the grown view anchored to the wider
// graph.
func topUpWithGlobalNodes(snap *Snapshot, admitted []string, visited map[string]bool, maxNodes int) []string {
	budget := int(float64(maxNodes) * globalTopUpFraction)
	if budget == 0 {
		return admitted
	}

	ranked := make([]common.EntityMetrics, len(snap.Metrics))
	copy(ranked, snap.Metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	for _, node := range ranked {
		if budget == 0 {
			break
		}
		key := strings.ToLower(node.Name)
		if visited[key] {
			continue
		}
		visited[key] = true
		admitted = append(admitted, key)
		budget--
	}

	return admitted
}
