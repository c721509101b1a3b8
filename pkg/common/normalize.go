package common

import (
	"encoding/json"
	"strings"
)

// Upstream extractors have shipped several shapes for the same record over
// time: relationships keyed by "source"/"target", "from"/"to", or
// "fromEntity"/"toEntity"; community membership as a native list or a
// serialized string. Everything is mapped onto the canonical record types
// here, once, at ingestion. Missing optional fields get documented
// defaults instead of errors.

const (
	// DefaultCommunityID is assigned to entities absent from every
	// community.
	DefaultCommunityID = "default"

	// DefaultConfidence substitutes a missing or invalid confidence.
	DefaultConfidence = 0.5

	// MaxDisplaySources caps the deduplicated source list attached to a
	// relationship at display time.
	MaxDisplaySources = 10
)

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstNumber(raw map[string]any, fallback float64, keys ...string) float64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
	}
	return fallback
}

// NormalizeEntity maps a raw entity record onto the canonical Entity.
// Confidence outside [0,1] or missing falls back to DefaultConfidence.
func NormalizeEntity(raw map[string]any) Entity {
	confidence := firstNumber(raw, DefaultConfidence, "confidence", "score")
	if confidence < 0 || confidence > 1 {
		confidence = DefaultConfidence
	}

	return Entity{
		Name:        firstString(raw, "name", "entity", "entityName"),
		Type:        firstString(raw, "type", "entityType"),
		Description: firstString(raw, "description"),
		Confidence:  confidence,
		Count:       int(firstNumber(raw, 0, "count", "frequency")),
	}
}

// NormalizeRelationship maps a raw relationship record onto the canonical
// Relationship, accepting every endpoint field variant seen upstream.
func NormalizeRelationship(raw map[string]any) Relationship {
	confidence := firstNumber(raw, DefaultConfidence, "confidence", "strength")
	if confidence < 0 || confidence > 1 {
		confidence = DefaultConfidence
	}

	return Relationship{
		FromEntity: firstString(raw, "from_entity", "fromEntity", "from", "source"),
		ToEntity:   firstString(raw, "to_entity", "toEntity", "to", "target"),
		Type:       firstString(raw, "relationship_type", "relationshipType", "type"),
		Confidence: confidence,
		Sources:    ParseStringList(raw["sources"]),
		Count:      int(firstNumber(raw, 1, "count")),
	}
}

// ParseStringList accepts the list shapes community membership and source
// lists arrive in: a native string list, a generic list, a JSON-encoded
// array, or a comma-separated string.
func ParseStringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return cleanStrings(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return cleanStrings(out)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if strings.HasPrefix(trimmed, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return cleanStrings(parsed)
			}
		}
		return cleanStrings(strings.Split(trimmed, ","))
	default:
		return nil
	}
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DedupeSources deduplicates a source list preserving order and caps it
// at MaxDisplaySources.
func DedupeSources(sources []string) []string {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
		if len(out) == MaxDisplaySources {
			break
		}
	}
	return out
}
