package graph

import (
	"sync"

	"github.com/inquora/atlas/backend/pkg/store"
)

// Engine owns the per-collection graph caches and runs the query
// algorithms against their snapshots. One Engine is created per process;
// caches are created lazily per collection and live for the process
// lifetime. There is no TTL: a valid cache is trusted until explicitly
// invalidated.
type Engine struct {
	store          store.GraphStorage
	topEntityLimit int
	maxRetries     int

	mu          sync.Mutex
	collections map[int64]*CollectionCaches
}

// CollectionCaches bundles the entity graph cache and the topic graph
// cache of one collection. The two caches are invalidated independently;
// operations that change both (graph rebuild, hierarchy merge) chain the
// invalidations explicitly.
type CollectionCaches struct {
	Graph  *Cache
	Topics *TopicCache
}

// NewEngineParams defines the configuration for creating an Engine.
//
// TopEntityLimit bounds how many entities a cache rebuild loads from the
// store. MaxRetries applies to retried collaborator calls.
type NewEngineParams struct {
	Store          store.GraphStorage
	TopEntityLimit int
	MaxRetries     int
}

// NewEngine creates an Engine backed by the given storage collaborator.
func NewEngine(params NewEngineParams) *Engine {
	limit := params.TopEntityLimit
	if limit <= 0 {
		limit = 1000
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Engine{
		store:          params.Store,
		topEntityLimit: limit,
		maxRetries:     maxRetries,
		collections:    make(map[int64]*CollectionCaches),
	}
}

// Store returns the storage collaborator the engine was built with.
func (e *Engine) Store() store.GraphStorage {
	return e.store
}

// Collection returns the caches for the given collection, creating them
// on first use.
func (e *Engine) Collection(collectionID int64) *CollectionCaches {
	e.mu.Lock()
	defer e.mu.Unlock()

	caches, ok := e.collections[collectionID]
	if !ok {
		caches = &CollectionCaches{
			Graph:  newCache(e.store, collectionID, e.topEntityLimit),
			Topics: newTopicCache(e.store, collectionID),
		}
		e.collections[collectionID] = caches
	}
	return caches
}

// InvalidateAll marks both caches of a collection invalid. Used by the
// operations that change the underlying graph wholesale: explicit
// rebuilds, hierarchy merge application, and knowledge imports.
func (e *Engine) InvalidateAll(collectionID int64) {
	caches := e.Collection(collectionID)
	caches.Graph.Invalidate()
	caches.Topics.Invalidate()
}
