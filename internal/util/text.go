package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 sequences and NUL bytes from
// a string before it is interpolated into an ILIKE pattern. Topic names
// arrive from model output and user input; Postgres rejects text
// parameters containing NUL, so they are removed rather than escaped.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	clean := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(clean, "\x00", "")
}
