package pgx

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
)

// ImportKnowledge upserts entities and appends their relationships in
// one transaction. Records are expected to be normalized already; names
// are the upsert key. Entity embeddings are generated on import so
// similarity search covers imported entities; an embedding failure only
// loses the embedding, not the entity.
func (s *GraphDBStorage) ImportKnowledge(
	ctx context.Context,
	collectionID int64,
	entities []common.Entity,
	relationships []common.Relationship,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	imported := 0
	for _, ent := range entities {
		if ent.Name == "" {
			continue
		}

		var embedding any
		vec, embErr := s.aiClient.GenerateEmbedding(ctx, []byte(strings.TrimSpace(ent.Name+" "+ent.Description)))
		if embErr != nil {
			logger.Warn("[Storage] Failed to embed imported entity", "collection_id", collectionID, "entity", ent.Name, "err", embErr)
		} else {
			embedding = pgvector.NewVector(vec)
		}

		count := ent.Count
		if count < 1 {
			count = 1
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO entities (collection_id, name, type, description, confidence, count, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (collection_id, name) DO UPDATE SET
				type        = CASE WHEN EXCLUDED.type <> '' THEN EXCLUDED.type ELSE entities.type END,
				description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE entities.description END,
				confidence  = EXCLUDED.confidence,
				count       = entities.count + EXCLUDED.count,
				embedding   = COALESCE(EXCLUDED.embedding, entities.embedding)`,
			collectionID, ent.Name, ent.Type, ent.Description, ent.Confidence, count, embedding,
		)
		if err != nil {
			return err
		}
		imported++
	}

	for _, rel := range relationships {
		if rel.FromEntity == "" || rel.ToEntity == "" {
			continue
		}

		count := rel.Count
		if count < 1 {
			count = 1
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO relationships (collection_id, from_entity, to_entity, relationship_type, confidence, sources, count)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			collectionID, rel.FromEntity, rel.ToEntity, rel.Type, rel.Confidence, rel.Sources, count,
		)
		if err != nil {
			return err
		}
	}

	if err := bumpEntityGraphVersion(ctx, tx, collectionID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("[Storage] Knowledge imported",
		"collection_id", collectionID,
		"entities", imported,
		"relationships", len(relationships))
	return nil
}
