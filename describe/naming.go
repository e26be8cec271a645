package describe

import "strings"

// ExposedName converts a Go exported name to its foreign-visible form.
// Go uses PascalCase; the bound surface uses lowerCamel.
// e.g., "DistanceFromOrigin" → "distanceFromOrigin", "X" → "x".
func ExposedName(name string) string {
	if len(name) == 0 {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
