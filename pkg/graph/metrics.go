package graph

import (
	"math"

	"github.com/inquora/atlas/backend/pkg/common"
	"github.com/inquora/atlas/backend/pkg/logger"
)

const (
	minNodeSize = 8
	maxNodeSize = 40
)

// ComputeEntityMetrics turns raw entities, relationships, and communities
// into ranked entity records with degree, importance, community, and
// render size populated. One record is produced per unique entity name,
// preserving input order.
//
// Relationships referencing entity names missing from the entity set are
// logged and skipped for degree accounting; they reduce effective degree
// rather than failing the computation.
func ComputeEntityMetrics(
	entities []common.Entity,
	relationships []common.Relationship,
	communities []common.Community,
) []common.EntityMetrics {
	if len(entities) == 0 {
		return []common.EntityMetrics{}
	}

	degrees := make(map[string]int, len(entities))
	order := make([]common.Entity, 0, len(entities))
	for _, entity := range entities {
		if _, seen := degrees[entity.Name]; seen {
			continue
		}
		degrees[entity.Name] = 0
		order = append(order, entity)
	}

	for _, rel := range relationships {
		fromKnown := incrementDegree(degrees, rel.FromEntity)
		toKnown := incrementDegree(degrees, rel.ToEntity)
		if !fromKnown || !toKnown {
			logger.Debug("[Metrics] Relationship references unknown entity",
				"from", rel.FromEntity, "to", rel.ToEntity)
		}
	}

	maxDegree := 0
	for _, degree := range degrees {
		if degree > maxDegree {
			maxDegree = degree
		}
	}

	communityIndex := buildCommunityIndex(communities)

	metrics := make([]common.EntityMetrics, 0, len(order))
	for _, entity := range order {
		degree := degrees[entity.Name]

		communityID, ok := communityIndex[entity.Name]
		if !ok {
			communityID = common.DefaultCommunityID
		}

		metrics = append(metrics, common.EntityMetrics{
			Entity:      entity,
			Degree:      degree,
			Importance:  float64(degree) / float64(max(maxDegree, 1)),
			CommunityID: communityID,
			Size:        nodeSize(degree),
		})
	}

	return metrics
}

func incrementDegree(degrees map[string]int, name string) bool {
	if _, ok := degrees[name]; !ok {
		return false
	}
	degrees[name]++
	return true
}

func buildCommunityIndex(communities []common.Community) map[string]string {
	index := make(map[string]string)
	for _, community := range communities {
		for _, name := range community.Entities {
			if _, taken := index[name]; !taken {
				index[name] = community.ID
			}
		}
	}
	return index
}

// nodeSize maps degree onto a render size hint: monotonic in degree,
// bounded so isolated nodes stay visible and hubs do not dominate layout.
func nodeSize(degree int) float64 {
	size := minNodeSize + math.Sqrt(float64(degree)*3)
	return math.Min(maxNodeSize, math.Max(minNodeSize, size))
}
