package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
	"github.com/inquora/atlas/backend/pkg/store"
)

const (
	pageRankDamping    = 0.85
	pageRankIterations = 20
)

// TopicSnapshot is one immutable build of a collection's topic graph:
// the hierarchy forest, the derived parent-child edges, the lateral
// relationship set with sibling pairs filtered out, and the computed
// topic metrics.
type TopicSnapshot struct {
	Nodes          []common.TopicNode
	HierarchyEdges []common.TopicRelationship
	LateralEdges   []common.TopicRelationship
	Metrics        []common.TopicMetrics
	BuiltAt        time.Time

	byID    map[string]*common.TopicNode
	byName  map[string]*common.TopicNode
	version int64
}

// NodeByID returns the topic with the given ID, or nil.
func (s *TopicSnapshot) NodeByID(id string) *common.TopicNode {
	return s.byID[id]
}

// NodeByName returns the topic whose name matches case-insensitively,
// or nil.
func (s *TopicSnapshot) NodeByName(name string) *common.TopicNode {
	return s.byName[strings.ToLower(name)]
}

// TopicCache holds the topic graph of one collection, with the same
// invalidation contract as the entity graph cache.
type TopicCache struct {
	store        store.GraphStorage
	collectionID int64

	mu    sync.Mutex
	valid bool
	snap  *TopicSnapshot
}

func newTopicCache(st store.GraphStorage, collectionID int64) *TopicCache {
	return &TopicCache{store: st, collectionID: collectionID}
}

// Ensure returns a valid topic snapshot, rebuilding from storage first if
// the cache is invalid. Failed rebuilds keep the previous snapshot and
// leave the cache invalid. Like the entity cache, a valid snapshot is
// only served while the collection's stored topic counter still matches
// it, so merge runs committed by the worker are picked up here.
func (c *TopicCache) Ensure(ctx context.Context) (*TopicSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.snap != nil {
		versions, err := c.store.GetGraphVersions(ctx, c.collectionID)
		if err != nil {
			logger.Warn("[Cache] Version check failed, serving held snapshot",
				"collection_id", c.collectionID, "err", err)
			return c.snap, nil
		}
		if versions.Topics == c.snap.version {
			return c.snap, nil
		}
		c.valid = false
	}

	snap, err := c.rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild topic graph cache: %w", err)
	}

	c.snap = snap
	c.valid = true
	return snap, nil
}

// Invalidate marks the cache invalid without discarding its data.
func (c *TopicCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

// TopicStatus describes the topic cache for the status endpoint.
type TopicStatus struct {
	Valid      bool      `json:"valid"`
	BuiltAt    time.Time `json:"built_at,omitzero"`
	TopicCount int       `json:"topic_count"`
	EdgeCount  int       `json:"edge_count"`
}

// Status reports validity and the counts of the last built snapshot.
func (c *TopicCache) Status() TopicStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := TopicStatus{Valid: c.valid}
	if c.snap != nil {
		status.BuiltAt = c.snap.BuiltAt
		status.TopicCount = len(c.snap.Nodes)
		status.EdgeCount = len(c.snap.HierarchyEdges) + len(c.snap.LateralEdges)
	}
	return status
}

func (c *TopicCache) rebuild(ctx context.Context) (*TopicSnapshot, error) {
	logger.Debug("[Cache] Rebuilding topic graph cache", "collection_id", c.collectionID)

	// Read the counter before the data: a merge landing mid-rebuild
	// leaves the snapshot one version behind and the next read rebuilds
	// again.
	versions, err := c.store.GetGraphVersions(ctx, c.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic graph version: %w", err)
	}

	nodes, err := c.store.GetTopicHierarchy(ctx, c.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic hierarchy: %w", err)
	}

	lateral, err := c.store.GetTopicRelationships(ctx, c.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic relationships: %w", err)
	}

	// Child lists are rebuilt from the parent pointers so the two sides
	// of the forest invariant cannot drift apart.
	byID := make(map[string]*common.TopicNode, len(nodes))
	for i := range nodes {
		nodes[i].ChildIDs = nil
		byID[nodes[i].ID] = &nodes[i]
	}
	for i := range nodes {
		parentID := nodes[i].ParentID
		if parentID == "" {
			continue
		}
		parent, ok := byID[parentID]
		if !ok {
			logger.Warn("[Cache] Topic references missing parent, treating as root",
				"topic_id", nodes[i].ID, "parent_id", parentID)
			nodes[i].ParentID = ""
			continue
		}
		parent.ChildIDs = append(parent.ChildIDs, nodes[i].ID)
	}

	byName := make(map[string]*common.TopicNode, len(nodes))
	for i := range nodes {
		key := strings.ToLower(nodes[i].Name)
		if _, taken := byName[key]; !taken {
			byName[key] = &nodes[i]
		}
	}

	hierarchyEdges := make([]common.TopicRelationship, 0, len(nodes))
	for i := range nodes {
		if nodes[i].ParentID == "" {
			continue
		}
		hierarchyEdges = append(hierarchyEdges, common.TopicRelationship{
			From:     nodes[i].ParentID,
			To:       nodes[i].ID,
			Type:     "parent_child",
			Strength: 1,
		})
	}

	snap := &TopicSnapshot{
		Nodes:          nodes,
		HierarchyEdges: hierarchyEdges,
		LateralEdges:   filterLateralEdges(lateral, byID),
		BuiltAt:        time.Now(),
		byID:           byID,
		byName:         byName,
		version:        versions.Topics,
	}
	snap.Metrics = computeTopicMetrics(snap)

	logger.Info("[Cache] Topic graph cache rebuilt",
		"collection_id", c.collectionID,
		"topics", len(nodes),
		"lateral_edges", len(snap.LateralEdges))

	return snap, nil
}

// filterLateralEdges drops self edges, edges with unknown endpoints, and
// sibling pairs. Siblings are already connected through their shared
// parent, so a lateral edge between them is redundant in the rendered
// graph.
func filterLateralEdges(edges []common.TopicRelationship, byID map[string]*common.TopicNode) []common.TopicRelationship {
	filtered := make([]common.TopicRelationship, 0, len(edges))
	for _, edge := range edges {
		if edge.From == edge.To {
			continue
		}
		from, okFrom := byID[edge.From]
		to, okTo := byID[edge.To]
		if !okFrom || !okTo {
			continue
		}
		if from.ParentID != "" && from.ParentID == to.ParentID {
			continue
		}
		filtered = append(filtered, edge)
	}
	return filtered
}

func computeTopicMetrics(snap *TopicSnapshot) []common.TopicMetrics {
	if len(snap.Nodes) == 0 {
		return []common.TopicMetrics{}
	}

	degrees := make(map[string]int, len(snap.Nodes))
	for i := range snap.Nodes {
		degrees[snap.Nodes[i].ID] = 0
	}
	edges := make([]common.TopicRelationship, 0, len(snap.HierarchyEdges)+len(snap.LateralEdges))
	edges = append(edges, snap.HierarchyEdges...)
	edges = append(edges, snap.LateralEdges...)
	for _, edge := range edges {
		degrees[edge.From]++
		degrees[edge.To]++
	}

	maxDegree := 0
	for _, degree := range degrees {
		if degree > maxDegree {
			maxDegree = degree
		}
	}

	ranks := topicPageRank(snap.Nodes, edges)
	descendants := countDescendants(snap)

	metrics := make([]common.TopicMetrics, 0, len(snap.Nodes))
	for i := range snap.Nodes {
		node := &snap.Nodes[i]
		degree := degrees[node.ID]
		metrics = append(metrics, common.TopicMetrics{
			TopicID:     node.ID,
			Name:        node.Name,
			Level:       node.Level,
			Degree:      degree,
			Importance:  float64(degree) / float64(max(maxDegree, 1)),
			Rank:        ranks[node.ID],
			Descendants: descendants[node.ID],
			Size:        nodeSize(degree),
		})
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Importance > metrics[j].Importance
	})
	return metrics
}

// topicPageRank runs a PageRank-style score over the combined hierarchy
// and lateral edge set, treated as undirected.
func topicPageRank(nodes []common.TopicNode, edges []common.TopicRelationship) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	neighbors := make(map[string][]string, n)
	for _, edge := range edges {
		neighbors[edge.From] = append(neighbors[edge.From], edge.To)
		neighbors[edge.To] = append(neighbors[edge.To], edge.From)
	}

	scores := make(map[string]float64, n)
	for i := range nodes {
		scores[nodes[i].ID] = 1.0 / float64(n)
	}

	for iter := 0; iter < pageRankIterations; iter++ {
		next := make(map[string]float64, n)
		for i := range nodes {
			id := nodes[i].ID
			sum := 0.0
			for _, neighbor := range neighbors[id] {
				if out := len(neighbors[neighbor]); out > 0 {
					sum += scores[neighbor] / float64(out)
				}
			}
			next[id] = (1-pageRankDamping)/float64(n) + pageRankDamping*sum
		}
		scores = next
	}

	return scores
}

func countDescendants(snap *TopicSnapshot) map[string]int {
	counts := make(map[string]int, len(snap.Nodes))
	onStack := make(map[string]bool)

	var count func(id string) int
	count = func(id string) int {
		if cached, ok := counts[id]; ok {
			return cached
		}
		if onStack[id] {
			// Parent cycle in malformed input; break it.
			return 0
		}
		onStack[id] = true
		total := 0
		node := snap.byID[id]
		if node != nil {
			for _, childID := range node.ChildIDs {
				total += 1 + count(childID)
			}
		}
		delete(onStack, id)
		counts[id] = total
		return total
	}

	for i := range snap.Nodes {
		count(snap.Nodes[i].ID)
	}
	return counts
}
