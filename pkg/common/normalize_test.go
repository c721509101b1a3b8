package common

import (
	"reflect"
	"testing"
)

func TestNormalizeRelationship(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Relationship
	}{
		{
			name: "canonical field names",
			raw: map[string]any{
				"from_entity":       "Acme",
				"to_entity":         "Bolt",
				"relationship_type": "supplies",
				"confidence":        0.9,
				"count":             float64(3),
			},
			want: Relationship{
				FromEntity: "Acme",
				ToEntity:   "Bolt",
				Type:       "supplies",
				Confidence: 0.9,
				Count:      3,
			},
		},
		{
			name: "camelCase variant",
			raw: map[string]any{
				"fromEntity":       "Acme",
				"toEntity":         "Bolt",
				"relationshipType": "supplies",
			},
			want: Relationship{
				FromEntity: "Acme",
				ToEntity:   "Bolt",
				Type:       "supplies",
				Confidence: DefaultConfidence,
				Count:      1,
			},
		},
		{
			name: "source and target variant",
			raw: map[string]any{
				"source": "Acme",
				"target": "Bolt",
				"type":   "supplies",
			},
			want: Relationship{
				FromEntity: "Acme",
				ToEntity:   "Bolt",
				Type:       "supplies",
				Confidence: DefaultConfidence,
				Count:      1,
			},
		},
		{
			name: "out of range confidence falls back",
			raw: map[string]any{
				"from":       "Acme",
				"to":         "Bolt",
				"confidence": 1.7,
			},
			want: Relationship{
				FromEntity: "Acme",
				ToEntity:   "Bolt",
				Confidence: DefaultConfidence,
				Count:      1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRelationship(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeRelationship() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{
			name:  "native string list",
			value: []string{"a", "b"},
			want:  []string{"a", "b"},
		},
		{
			name:  "generic list",
			value: []any{"a", "b", 3},
			want:  []string{"a", "b"},
		},
		{
			name:  "serialized JSON array",
			value: `["a","b"]`,
			want:  []string{"a", "b"},
		},
		{
			name:  "comma separated",
			value: "a, b ,c",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "empty string",
			value: "  ",
			want:  nil,
		},
		{
			name:  "nil",
			value: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStringList(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseStringList(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDedupeSources(t *testing.T) {
	in := []string{"u1", "u2", "u1", " u3 ", "", "u2"}
	want := []string{"u1", "u2", "u3"}
	if got := DedupeSources(in); !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeSources() = %v, want %v", got, want)
	}

	long := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		long = append(long, string(rune('a'+i)))
	}
	if got := DedupeSources(long); len(got) != MaxDisplaySources {
		t.Errorf("DedupeSources() returned %d sources, want cap of %d", len(got), MaxDisplaySources)
	}
}

func TestActivityPriority(t *testing.T) {
	if ActivityPriority(ActivityBookmark) <= ActivityPriority(ActivityVisit) {
		t.Error("bookmark should outrank visit")
	}
	if ActivityPriority(ActivityVisit) <= ActivityPriority(ActivityExtraction) {
		t.Error("visit should outrank extraction")
	}
	if ActivityPriority("unknown") >= ActivityPriority(ActivityExtraction) {
		t.Error("unknown types should rank below extraction")
	}
}
