package launcher

import "strings"

// IsCommand reports whether query is raw command text: prefix is
// non-empty and query starts with it.
func IsCommand(query, prefix string) bool {
	return prefix != "" && strings.HasPrefix(query, prefix)
}

// CommandText strips the command prefix from query.
func CommandText(query, prefix string) string {
	return strings.TrimPrefix(query, prefix)
}
