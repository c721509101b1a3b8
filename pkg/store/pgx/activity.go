package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/inquora/atlas/backend/internal/util"
	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/store"
)

// GetTopicActivities returns the newest activities whose topic occurrence
// matches the given name by substring. Deduplication and priority
// resolution happen in the timeline builder, not here.
func (s *GraphDBStorage) GetTopicActivities(ctx context.Context, collectionID int64, topicName string, limit int) ([]common.Activity, error) {
	pattern := "%" + util.SanitizePostgresText(topicName) + "%"

	rows, err := s.conn.Query(ctx, `
		SELECT url, title, activity_type, occurred_at
		FROM activities
		WHERE collection_id = $1 AND topic_name ILIKE $2
		ORDER BY occurred_at DESC
		LIMIT $3`, collectionID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]common.Activity, 0)
	for rows.Next() {
		var a common.Activity
		if err := rows.Scan(&a.URL, &a.Title, &a.Type, &a.Timestamp); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// GetCoOccurringTopics returns topics that appear on the same documents
// as the given seed topics, ordered by shared-document count descending.
// The seeds themselves are excluded.
func (s *GraphDBStorage) GetCoOccurringTopics(ctx context.Context, collectionID int64, topicNames []string, limit int) ([]string, error) {
	if len(topicNames) == 0 {
		return nil, nil
	}

	seeds := make([]string, 0, len(topicNames))
	for _, name := range topicNames {
		seeds = append(seeds, util.SanitizePostgresText(name))
	}

	rows, err := s.conn.Query(ctx, `
		SELECT a.topic_name
		FROM activities a
		WHERE a.collection_id = $1
		  AND NOT (lower(a.topic_name) = ANY (SELECT lower(unnest($2::text[]))))
		  AND a.url IN (
			SELECT url FROM activities
			WHERE collection_id = $1
			  AND lower(topic_name) = ANY (SELECT lower(unnest($2::text[])))
		  )
		GROUP BY a.topic_name
		ORDER BY count(DISTINCT a.url) DESC
		LIMIT $3`, collectionID, seeds, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query co-occurring topics: %w", err)
	}
	defer rows.Close()

	topics := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		topics = append(topics, name)
	}
	return topics, rows.Err()
}

// GetDocumentByURL returns the captured document with the given URL, or
// store.ErrNotFound.
func (s *GraphDBStorage) GetDocumentByURL(ctx context.Context, collectionID int64, url string) (*common.Document, error) {
	var d common.Document
	err := s.conn.QueryRow(ctx, `
		SELECT url, title, domain, captured_at
		FROM documents
		WHERE collection_id = $1 AND url = $2`,
		collectionID, url,
	).Scan(&d.URL, &d.Title, &d.Domain, &d.CapturedAt)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocumentTopics returns the distinct topic names that occur on the
// given document.
func (s *GraphDBStorage) GetDocumentTopics(ctx context.Context, collectionID int64, url string) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT topic_name
		FROM activities
		WHERE collection_id = $1 AND url = $2
		ORDER BY topic_name`, collectionID, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query document topics: %w", err)
	}
	defer rows.Close()

	topics := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		topics = append(topics, name)
	}
	return topics, rows.Err()
}
