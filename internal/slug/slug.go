package slug

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w-]+`)

// Make derives a URL-safe slug: lowercase, each space becomes a hyphen, and
// anything that is not a word character or hyphen is dropped.
func Make(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	return nonWord.ReplaceAllString(s, "")
}
