package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/store"
)

// GetTopEntities returns up to limit entities of a collection ordered by
// occurrence count descending, then name for a stable order on ties.
func (s *GraphDBStorage) GetTopEntities(ctx context.Context, collectionID int64, limit int) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT name, type, description, confidence, count
		FROM entities
		WHERE collection_id = $1
		ORDER BY count DESC, name ASC
		LIMIT $2`, collectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]common.Entity, 0)
	for rows.Next() {
		var e common.Entity
		if err := rows.Scan(&e.Name, &e.Type, &e.Description, &e.Confidence, &e.Count); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// GetAllRelationships returns every relationship of a collection.
func (s *GraphDBStorage) GetAllRelationships(ctx context.Context, collectionID int64) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT from_entity, to_entity, relationship_type, confidence, sources, count
		FROM relationships
		WHERE collection_id = $1`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	relationships := make([]common.Relationship, 0)
	for rows.Next() {
		var r common.Relationship
		if err := rows.Scan(&r.FromEntity, &r.ToEntity, &r.Type, &r.Confidence, &r.Sources, &r.Count); err != nil {
			return nil, err
		}
		relationships = append(relationships, r)
	}
	return relationships, rows.Err()
}

// GetAllCommunities returns the pre-computed community clusters of a
// collection.
func (s *GraphDBStorage) GetAllCommunities(ctx context.Context, collectionID int64) ([]common.Community, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT community_id, entities
		FROM communities
		WHERE collection_id = $1`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}
	defer rows.Close()

	communities := make([]common.Community, 0)
	for rows.Next() {
		var c common.Community
		if err := rows.Scan(&c.ID, &c.Entities); err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// GetEntityByName returns the entity matching name case-insensitively, or
// store.ErrNotFound.
func (s *GraphDBStorage) GetEntityByName(ctx context.Context, collectionID int64, name string) (*common.Entity, error) {
	var e common.Entity
	err := s.conn.QueryRow(ctx, `
		SELECT name, type, description, confidence, count
		FROM entities
		WHERE collection_id = $1 AND lower(name) = lower($2)`,
		collectionID, name,
	).Scan(&e.Name, &e.Type, &e.Description, &e.Confidence, &e.Count)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetNeighbors returns every relationship touching the given entity name,
// matched case-insensitively.
func (s *GraphDBStorage) GetNeighbors(ctx context.Context, collectionID int64, entityName string) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT from_entity, to_entity, relationship_type, confidence, sources, count
		FROM relationships
		WHERE collection_id = $1
		  AND (lower(from_entity) = lower($2) OR lower(to_entity) = lower($2))`,
		collectionID, entityName)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer rows.Close()

	relationships := make([]common.Relationship, 0)
	for rows.Next() {
		var r common.Relationship
		if err := rows.Scan(&r.FromEntity, &r.ToEntity, &r.Type, &r.Confidence, &r.Sources, &r.Count); err != nil {
			return nil, err
		}
		relationships = append(relationships, r)
	}
	return relationships, rows.Err()
}

// FindSimilarEntities embeds the lookup name and returns the closest
// entities by cosine distance. Used as the broader-search fallback when a
// name has no exact match in the cached graph.
func (s *GraphDBStorage) FindSimilarEntities(ctx context.Context, collectionID int64, name string, limit int) ([]common.Entity, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to embed entity name: %w", err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT name, type, description, confidence, count
		FROM entities
		WHERE collection_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3`, collectionID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar entities: %w", err)
	}
	defer rows.Close()

	entities := make([]common.Entity, 0)
	for rows.Next() {
		var e common.Entity
		if err := rows.Scan(&e.Name, &e.Type, &e.Description, &e.Confidence, &e.Count); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
