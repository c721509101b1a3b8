package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
	"github.com/inquora/atlas/backend/pkg/store"
)

// Snapshot is one immutable build of a collection's entity graph. All
// query algorithms run against a snapshot, never against live storage.
type Snapshot struct {
	Entities      []common.Entity
	Relationships []common.Relationship
	Communities   []common.Community
	Metrics       []common.EntityMetrics
	BuiltAt       time.Time

	byName  map[string]*common.EntityMetrics
	version int64
}

// MetricsByName returns the metrics record whose name matches the given
// name case-insensitively, or nil. Upstream entity extraction is not
// case-normalized, so lookups must not be either.
func (s *Snapshot) MetricsByName(name string) *common.EntityMetrics {
	return s.byName[strings.ToLower(name)]
}

// Cache holds the entity graph of one collection. State machine:
// INVALID -> (rebuild) -> VALID -> (invalidate) -> INVALID. A read
// against an invalid cache triggers a synchronous rebuild before the
// read proceeds. Rebuilds are serialized by the cache mutex, so two
// concurrent reads against an invalid cache perform one rebuild and
// observe the same snapshot.
type Cache struct {
	store          store.GraphStorage
	collectionID   int64
	topEntityLimit int

	mu    sync.Mutex
	valid bool
	snap  *Snapshot
}

func newCache(st store.GraphStorage, collectionID int64, topEntityLimit int) *Cache {
	return &Cache{
		store:          st,
		collectionID:   collectionID,
		topEntityLimit: topEntityLimit,
	}
}

// Ensure returns a valid snapshot, rebuilding from storage first if the
// cache is invalid. On rebuild failure the cache stays invalid but keeps
// the previous snapshot, so a concurrent reader never observes a
// half-populated structure; callers that prefer stale data over failure
// can fall back to Stale.
//
// A valid cache still compares the collection's stored mutation counter
// against the snapshot's: builds and imports commit in the worker
// process, and bumping the counter in the same transaction is how those
// writes invalidate the serving process's cache. If the counter cannot
// be read, the held snapshot is served rather than failing the read.
func (c *Cache) Ensure(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.snap != nil {
		versions, err := c.store.GetGraphVersions(ctx, c.collectionID)
		if err != nil {
			logger.Warn("[Cache] Version check failed, serving held snapshot",
				"collection_id", c.collectionID, "err", err)
			return c.snap, nil
		}
		if versions.Graph == c.snap.version {
			return c.snap, nil
		}
		c.valid = false
	}

	snap, err := c.rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild graph cache: %w", err)
	}

	c.snap = snap
	c.valid = true
	return snap, nil
}

// Invalidate marks the cache invalid without discarding its data. The
// next Ensure rebuilds from storage.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

// Stale returns the last built snapshot regardless of validity, or nil
// if no build has ever succeeded.
func (c *Cache) Stale() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Status describes the cache for the status endpoint.
type Status struct {
	Valid             bool      `json:"valid"`
	BuiltAt           time.Time `json:"built_at,omitzero"`
	EntityCount       int       `json:"entity_count"`
	RelationshipCount int       `json:"relationship_count"`
	CommunityCount    int       `json:"community_count"`
}

// Status reports validity and the counts of the last built snapshot.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{Valid: c.valid}
	if c.snap != nil {
		status.BuiltAt = c.snap.BuiltAt
		status.EntityCount = len(c.snap.Entities)
		status.RelationshipCount = len(c.snap.Relationships)
		status.CommunityCount = len(c.snap.Communities)
	}
	return status
}

func (c *Cache) rebuild(ctx context.Context) (*Snapshot, error) {
	logger.Debug("[Cache] Rebuilding entity graph cache", "collection_id", c.collectionID)
	started := time.Now()

	// Read the counter before the data: a write landing mid-rebuild
	// leaves the snapshot one version behind and the next read rebuilds
	// again.
	versions, err := c.store.GetGraphVersions(ctx, c.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph version: %w", err)
	}

	entities, err := c.store.GetTopEntities(ctx, c.collectionID, c.topEntityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	relationships, err := c.store.GetAllRelationships(ctx, c.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}
	// Source lists are deduplicated and capped at display time, not in
	// storage.
	for i := range relationships {
		relationships[i].Sources = common.DedupeSources(relationships[i].Sources)
	}

	communities, err := c.store.GetAllCommunities(ctx, c.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load communities: %w", err)
	}

	metrics := ComputeEntityMetrics(entities, relationships, communities)

	byName := make(map[string]*common.EntityMetrics, len(metrics))
	for i := range metrics {
		key := strings.ToLower(metrics[i].Name)
		if _, taken := byName[key]; !taken {
			byName[key] = &metrics[i]
		}
	}

	snap := &Snapshot{
		Entities:      entities,
		Relationships: relationships,
		Communities:   communities,
		Metrics:       metrics,
		BuiltAt:       time.Now(),
		byName:        byName,
		version:       versions.Graph,
	}

	logger.Info("[Cache] Entity graph cache rebuilt",
		"collection_id", c.collectionID,
		"entities", len(entities),
		"relationships", len(relationships),
		"duration_ms", time.Since(started).Milliseconds())

	return snap, nil
}
