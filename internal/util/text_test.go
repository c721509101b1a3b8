package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "empty",
			value: "",
			want:  "",
		},
		{
			name:  "plain text unchanged",
			value: "machine learning",
			want:  "machine learning",
		},
		{
			name:  "null bytes removed",
			value: "a\x00b",
			want:  "ab",
		},
		{
			name:  "invalid utf8 removed",
			value: "a\xffb",
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePostgresText(tt.value); got != tt.want {
				t.Errorf("SanitizePostgresText(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
