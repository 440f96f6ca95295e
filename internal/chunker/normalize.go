package chunker

import "strings"

// Normalize collapses every whitespace run, line breaks included, to a single
// space and trims both ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Words splits text on whitespace.
func Words(text string) []string { return strings.Fields(text) }
