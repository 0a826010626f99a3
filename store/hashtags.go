package store

import (
	"regexp"
	"strings"
)

var hashtagSeparator = regexp.MustCompile(`[\s,#]+`)

// ParseHashtags turns the free-text hashtag field of an upload into a list of
// normalized tags: split on whitespace, commas and '#', leading '#' stripped,
// lower-cased, insertion order preserved, duplicates kept out.
func ParseHashtags(raw string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, part := range hashtagSeparator.Split(raw, -1) {
		tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "#"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
