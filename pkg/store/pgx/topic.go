package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
)

// GetTopicHierarchy returns every topic of a collection. Child lists are
// not stored; the cache derives them from the parent pointers.
func (s *GraphDBStorage) GetTopicHierarchy(ctx context.Context, collectionID int64) ([]common.TopicNode, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, name, parent_id, level, confidence, source_ordinals
		FROM topics
		WHERE collection_id = $1
		ORDER BY level ASC, name ASC`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	topics := make([]common.TopicNode, 0)
	for rows.Next() {
		var t common.TopicNode
		if err := rows.Scan(&t.ID, &t.Name, &t.ParentID, &t.Level, &t.Confidence, &t.SourceOrdinals); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// GetTopicRelationships returns the lateral topic edges of a collection.
func (s *GraphDBStorage) GetTopicRelationships(ctx context.Context, collectionID int64) ([]common.TopicRelationship, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT from_id, to_id, link_type, strength
		FROM topic_links
		WHERE collection_id = $1`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic links: %w", err)
	}
	defer rows.Close()

	links := make([]common.TopicRelationship, 0)
	for rows.Next() {
		var l common.TopicRelationship
		if err := rows.Scan(&l.From, &l.To, &l.Type, &l.Strength); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ApplyTopicMerges commits a reconciliation run in one transaction:
// make_child re-parents the topic, merge folds it into the target
// (children, links, and activities re-pointed, the topic removed), and
// keep_root is a no-op. Levels are recomputed from the root set
// afterwards so the stored depth never drifts from the parent pointers.
func (s *GraphDBStorage) ApplyTopicMerges(ctx context.Context, collectionID int64, merges []common.TopicMerge) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	applied := 0
	for _, merge := range merges {
		switch merge.Action {
		case common.MergeActionKeepRoot:
			continue
		case common.MergeActionMakeChild:
			if err := s.reparentTopic(ctx, tx, collectionID, merge.Topic, merge.TargetTopic); err != nil {
				return err
			}
			applied++
		case common.MergeActionMerge:
			if err := s.mergeTopic(ctx, tx, collectionID, merge.Topic, merge.TargetTopic); err != nil {
				return err
			}
			applied++
		default:
			return fmt.Errorf("unknown merge action %q for topic %q", merge.Action, merge.Topic)
		}
	}

	if err := recomputeTopicLevels(ctx, tx, collectionID); err != nil {
		return err
	}

	if err := bumpTopicVersion(ctx, tx, collectionID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("[Store] Topic merges applied",
		"collection_id", collectionID,
		"total", len(merges),
		"applied", applied)
	return nil
}

func (s *GraphDBStorage) topicIDByName(ctx context.Context, tx pgxv5.Tx, collectionID int64, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT public_id FROM topics
		WHERE collection_id = $1 AND lower(name) = lower($2)`,
		collectionID, name,
	).Scan(&id)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return "", fmt.Errorf("topic %q not found", name)
	}
	return id, err
}

func (s *GraphDBStorage) reparentTopic(ctx context.Context, tx pgxv5.Tx, collectionID int64, topic, target string) error {
	topicID, err := s.topicIDByName(ctx, tx, collectionID, topic)
	if err != nil {
		return err
	}
	targetID, err := s.topicIDByName(ctx, tx, collectionID, target)
	if err != nil {
		return err
	}
	if topicID == targetID {
		return fmt.Errorf("cannot make topic %q a child of itself", topic)
	}

	_, err = tx.Exec(ctx, `
		UPDATE topics SET parent_id = $3
		WHERE collection_id = $1 AND public_id = $2`,
		collectionID, topicID, targetID)
	return err
}

func (s *GraphDBStorage) mergeTopic(ctx context.Context, tx pgxv5.Tx, collectionID int64, topic, target string) error {
	topicID, err := s.topicIDByName(ctx, tx, collectionID, topic)
	if err != nil {
		return err
	}
	targetID, err := s.topicIDByName(ctx, tx, collectionID, target)
	if err != nil {
		return err
	}
	if topicID == targetID {
		return fmt.Errorf("cannot merge topic %q into itself", topic)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE topics SET parent_id = $3
		WHERE collection_id = $1 AND parent_id = $2`,
		collectionID, topicID, targetID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE topic_links SET from_id = $3
		WHERE collection_id = $1 AND from_id = $2 AND to_id <> $3`,
		collectionID, topicID, targetID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE topic_links SET to_id = $3
		WHERE collection_id = $1 AND to_id = $2 AND from_id <> $3`,
		collectionID, topicID, targetID); err != nil {
		return err
	}
	// Any link that now points at the target on both ends is redundant.
	if _, err := tx.Exec(ctx, `
		DELETE FROM topic_links
		WHERE collection_id = $1 AND (from_id = $2 OR to_id = $2)`,
		collectionID, topicID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE activities SET topic_name = (
			SELECT name FROM topics WHERE collection_id = $1 AND public_id = $3
		)
		WHERE collection_id = $1 AND topic_name = (
			SELECT name FROM topics WHERE collection_id = $1 AND public_id = $2
		)`,
		collectionID, topicID, targetID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM topics
		WHERE collection_id = $1 AND public_id = $2`,
		collectionID, topicID)
	return err
}

func recomputeTopicLevels(ctx context.Context, tx pgxv5.Tx, collectionID int64) error {
	_, err := tx.Exec(ctx, `
		WITH RECURSIVE depth AS (
			SELECT public_id, 0 AS lvl
			FROM topics
			WHERE collection_id = $1 AND parent_id = ''
			UNION ALL
			SELECT t.public_id, d.lvl + 1
			FROM topics t
			JOIN depth d ON t.parent_id = d.public_id
			WHERE t.collection_id = $1
		)
		UPDATE topics SET level = depth.lvl
		FROM depth
		WHERE topics.collection_id = $1 AND topics.public_id = depth.public_id`,
		collectionID)
	return err
}
