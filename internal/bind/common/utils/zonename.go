package utils

import "strings"

// CanonicalZoneName returns the form used to key stored zones: trimmed,
// lowercased and without trailing dots. The root zone stays ".".
func CanonicalZoneName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	trimmed := strings.TrimRight(name, ".")
	if trimmed == "" && name != "" {
		return "."
	}
	return trimmed
}
