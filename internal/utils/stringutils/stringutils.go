package stringutils

import (
	"fmt"
	"strings"
)

// INCluse builds the positional placeholders and args of a SQL IN clause,
// numbering from $1.
func INCluse[T any](list []T) (placeholders []string, args []any) {
	return INCluseFrom(list, 1)
}

// INCluseFrom is INCluse with the first placeholder numbered start, for
// queries that already bind parameters before the IN list.
func INCluseFrom[T any](list []T, start int) (placeholders []string, args []any) {
	placeholders = make([]string, len(list))
	args = make([]any, len(list))
	for i, id := range list {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}

	return placeholders, args
}

// Slugify lower-cases s and joins its words with single hyphens, dropping
// punctuation.
func Slugify(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))

	slug = strings.ReplaceAll(slug, " ", "-")
	replacements := []string{".", ",", "!", "?", ":", ";", "'", "\"", "(", ")", "[", "]", "{", "}", "/", "\\"}
	for _, char := range replacements {
		slug = strings.ReplaceAll(slug, char, "")
	}

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return strings.Trim(slug, "-")
}
