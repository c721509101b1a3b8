package store

import (
	"context"
	"errors"

	"github.com/inquora/atlas/backend/pkg/common"
)

// ErrNotFound is returned when a requested entity, topic, or document is
// absent from the content store.
var ErrNotFound = errors.New("not found")

// GraphVersions are the per-collection mutation counters. Every write
// that changes the entity graph or the topic tree bumps its counter in
// the same transaction, so caches in any process can detect that storage
// has moved past the snapshot they hold.
type GraphVersions struct {
	Graph  int64
	Topics int64
}

// GraphStorage defines the interface to the content/graph storage engine.
// The query engine never serves reads from storage directly: it reads
// through the per-collection caches, which are rebuilt from these
// operations when invalid.
type GraphStorage interface {
	// Entity graph reads, used by cache rebuilds.
	GetTopEntities(ctx context.Context, collectionID int64, limit int) ([]common.Entity, error)
	GetAllRelationships(ctx context.Context, collectionID int64) ([]common.Relationship, error)
	GetAllCommunities(ctx context.Context, collectionID int64) ([]common.Community, error)

	// Point lookups serving detail endpoints and the neighborhood
	// fallback path.
	GetEntityByName(ctx context.Context, collectionID int64, name string) (*common.Entity, error)
	GetNeighbors(ctx context.Context, collectionID int64, entityName string) ([]common.Relationship, error)
	FindSimilarEntities(ctx context.Context, collectionID int64, name string, limit int) ([]common.Entity, error)

	// Graph lifecycle. BuildGraph recomputes the derived graph from the
	// content store; ClearGraph drops it. ImportKnowledge upserts
	// already-normalized records; callers invalidate caches afterwards.
	BuildGraph(ctx context.Context, collectionID int64) error
	ClearGraph(ctx context.Context, collectionID int64) error
	ImportKnowledge(ctx context.Context, collectionID int64, entities []common.Entity, relationships []common.Relationship) error

	// GetGraphVersions reports the collection's mutation counters.
	// Caches compare them against their snapshot's counters on every
	// valid read, so writes committed by another process invalidate
	// here too.
	GetGraphVersions(ctx context.Context, collectionID int64) (GraphVersions, error)

	// Topic tree reads and the reconciler's single write path.
	GetTopicHierarchy(ctx context.Context, collectionID int64) ([]common.TopicNode, error)
	GetTopicRelationships(ctx context.Context, collectionID int64) ([]common.TopicRelationship, error)
	ApplyTopicMerges(ctx context.Context, collectionID int64, merges []common.TopicMerge) error

	// Timeline and content breakdown reads.
	GetTopicActivities(ctx context.Context, collectionID int64, topicName string, limit int) ([]common.Activity, error)
	GetCoOccurringTopics(ctx context.Context, collectionID int64, topicNames []string, limit int) ([]string, error)
	GetDocumentByURL(ctx context.Context, collectionID int64, url string) (*common.Document, error)
	GetDocumentTopics(ctx context.Context, collectionID int64, url string) ([]string, error)
}
