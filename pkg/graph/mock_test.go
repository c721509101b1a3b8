package graph

import (
	"context"
	"sync/atomic"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/store"
)

// mockStore implements store.GraphStorage with overridable hooks and call
// counters, so tests can shape storage responses and observe rebuilds.
type mockStore struct {
	entities      []common.Entity
	relationships []common.Relationship
	communities   []common.Community
	topics        []common.TopicNode
	topicEdges    []common.TopicRelationship
	activities    map[string][]common.Activity
	coOccurring   []string

	entityCalls atomic.Int64
	topicCalls  atomic.Int64

	entitiesErr   error
	topicsErr     error
	coOccurErr    error
	activitiesErr error

	appliedMerges []common.TopicMerge

	graphVersion atomic.Int64
	topicVersion atomic.Int64
	versionsErr  error
}

func (m *mockStore) GetTopEntities(ctx context.Context, collectionID int64, limit int) ([]common.Entity, error) {
	m.entityCalls.Add(1)
	if m.entitiesErr != nil {
		return nil, m.entitiesErr
	}
	if limit > 0 && len(m.entities) > limit {
		return m.entities[:limit], nil
	}
	return m.entities, nil
}

func (m *mockStore) GetAllRelationships(ctx context.Context, collectionID int64) ([]common.Relationship, error) {
	return m.relationships, nil
}

func (m *mockStore) GetAllCommunities(ctx context.Context, collectionID int64) ([]common.Community, error) {
	return m.communities, nil
}

func (m *mockStore) GetEntityByName(ctx context.Context, collectionID int64, name string) (*common.Entity, error) {
	for i := range m.entities {
		if m.entities[i].Name == name {
			return &m.entities[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetNeighbors(ctx context.Context, collectionID int64, entityName string) ([]common.Relationship, error) {
	var out []common.Relationship
	for _, rel := range m.relationships {
		if rel.FromEntity == entityName || rel.ToEntity == entityName {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (m *mockStore) FindSimilarEntities(ctx context.Context, collectionID int64, name string, limit int) ([]common.Entity, error) {
	return nil, nil
}

func (m *mockStore) BuildGraph(ctx context.Context, collectionID int64) error {
	m.graphVersion.Add(1)
	return nil
}

func (m *mockStore) ClearGraph(ctx context.Context, collectionID int64) error {
	m.graphVersion.Add(1)
	return nil
}

func (m *mockStore) ImportKnowledge(ctx context.Context, collectionID int64, entities []common.Entity, relationships []common.Relationship) error {
	m.entities = append(m.entities, entities...)
	m.relationships = append(m.relationships, relationships...)
	m.graphVersion.Add(1)
	return nil
}

func (m *mockStore) GetTopicHierarchy(ctx context.Context, collectionID int64) ([]common.TopicNode, error) {
	m.topicCalls.Add(1)
	if m.topicsErr != nil {
		return nil, m.topicsErr
	}
	out := make([]common.TopicNode, len(m.topics))
	copy(out, m.topics)
	return out, nil
}

func (m *mockStore) GetTopicRelationships(ctx context.Context, collectionID int64) ([]common.TopicRelationship, error) {
	return m.topicEdges, nil
}

func (m *mockStore) ApplyTopicMerges(ctx context.Context, collectionID int64, merges []common.TopicMerge) error {
	m.appliedMerges = append(m.appliedMerges, merges...)
	m.topicVersion.Add(1)
	return nil
}

func (m *mockStore) GetGraphVersions(ctx context.Context, collectionID int64) (store.GraphVersions, error) {
	if m.versionsErr != nil {
		return store.GraphVersions{}, m.versionsErr
	}
	return store.GraphVersions{
		Graph:  m.graphVersion.Load(),
		Topics: m.topicVersion.Load(),
	}, nil
}

func (m *mockStore) GetTopicActivities(ctx context.Context, collectionID int64, topicName string, limit int) ([]common.Activity, error) {
	if m.activitiesErr != nil {
		return nil, m.activitiesErr
	}
	activities := m.activities[topicName]
	if limit > 0 && len(activities) > limit {
		return activities[:limit], nil
	}
	return activities, nil
}

func (m *mockStore) GetCoOccurringTopics(ctx context.Context, collectionID int64, topicNames []string, limit int) ([]string, error) {
	if m.coOccurErr != nil {
		return nil, m.coOccurErr
	}
	return m.coOccurring, nil
}

func (m *mockStore) GetDocumentByURL(ctx context.Context, collectionID int64, url string) (*common.Document, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) GetDocumentTopics(ctx context.Context, collectionID int64, url string) ([]string, error) {
	return nil, nil
}
