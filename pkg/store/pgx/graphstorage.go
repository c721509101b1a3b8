package pgx

import (
	"context"
	"fmt"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inquora/atlas/backend/pkg/ai"
	"github.com/inquora/atlas/backend/pkg/logger"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements the store.GraphStorage interface using
// PostgreSQL with pgvector for entity similarity search. The AI client is
// used to embed lookup names; writes are serialized with a mutex.
type GraphDBStorage struct {
	conn     pgxIConn
	aiClient ai.GraphAIClient
	dbLock   sync.Mutex
}

// NewGraphDBStorageWithConnection creates a new GraphDBStorage using an
// existing database connection or pool.
func NewGraphDBStorageWithConnection(
	ctx context.Context,
	conn pgxIConn,
	aiClient ai.GraphAIClient,
) (*GraphDBStorage, error) {
	return &GraphDBStorage{
		conn:     conn,
		aiClient: aiClient,
	}, nil
}

// BuildGraph re-derives the display graph for a collection: relationship
// counts are refreshed from their source lists and relationships whose
// endpoints no longer exist are pruned.
func (s *GraphDBStorage) BuildGraph(ctx context.Context, collectionID int64) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	pruned, err := tx.Exec(ctx, `
		DELETE FROM relationships r
		WHERE r.collection_id = $1
		  AND (
			NOT EXISTS (
				SELECT 1 FROM entities e
				WHERE e.collection_id = r.collection_id
				  AND lower(e.name) = lower(r.from_entity)
			)
			OR NOT EXISTS (
				SELECT 1 FROM entities e
				WHERE e.collection_id = r.collection_id
				  AND lower(e.name) = lower(r.to_entity)
			)
		  )`, collectionID)
	if err != nil {
		return fmt.Errorf("failed to prune dangling relationships: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE relationships
		SET count = GREATEST(cardinality(sources), 1)
		WHERE collection_id = $1`, collectionID); err != nil {
		return fmt.Errorf("failed to refresh relationship counts: %w", err)
	}

	if err := bumpEntityGraphVersion(ctx, tx, collectionID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("[Store] Graph rebuilt",
		"collection_id", collectionID,
		"pruned_relationships", pruned.RowsAffected())
	return nil
}

// ClearGraph drops the derived graph of a collection: entities,
// relationships, and communities. Topics and activities are untouched.
func (s *GraphDBStorage) ClearGraph(ctx context.Context, collectionID int64) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"relationships", "communities", "entities"} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE collection_id = $1`, table),
			collectionID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := bumpEntityGraphVersion(ctx, tx, collectionID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
