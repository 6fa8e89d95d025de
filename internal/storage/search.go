package storage

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchTerm normalizes a topic search so every backend matches the same rows. Surrounding
// space is trimmed and '*' is dropped, since PostgREST reads it as a wildcard that cannot be
// escaped. The result matches as a literal, case-insensitive substring.
func SearchTerm(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}

// EscapeLike escapes LIKE metacharacters for the default backslash escape.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}
