package pgx

import (
	"context"
	"errors"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/inquora/atlas/backend/pkg/store"
)

// Every mutating transaction bumps a per-collection version counter in
// the same commit. Caches in other processes compare the counters
// against the version their snapshot was built from, so a build or merge
// committed by the worker is picked up by the server on its next read
// without any direct signalling between the two.

func bumpEntityGraphVersion(ctx context.Context, tx pgxv5.Tx, collectionID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO graph_versions (collection_id, graph_version)
		VALUES ($1, 1)
		ON CONFLICT (collection_id) DO UPDATE SET
			graph_version = graph_versions.graph_version + 1,
			updated_at = now()`, collectionID)
	return err
}

func bumpTopicVersion(ctx context.Context, tx pgxv5.Tx, collectionID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO graph_versions (collection_id, topic_version)
		VALUES ($1, 1)
		ON CONFLICT (collection_id) DO UPDATE SET
			topic_version = graph_versions.topic_version + 1,
			updated_at = now()`, collectionID)
	return err
}

// GetGraphVersions returns the current mutation counters of a
// collection. A collection that has never been written reports zero for
// both.
func (s *GraphDBStorage) GetGraphVersions(ctx context.Context, collectionID int64) (store.GraphVersions, error) {
	var versions store.GraphVersions
	err := s.conn.QueryRow(ctx, `
		SELECT graph_version, topic_version
		FROM graph_versions
		WHERE collection_id = $1`, collectionID,
	).Scan(&versions.Graph, &versions.Topics)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.GraphVersions{}, nil
	}
	if err != nil {
		return store.GraphVersions{}, err
	}
	return versions, nil
}
