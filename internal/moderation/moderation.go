// Package moderation screens user-entered free text before it is allowed
// anywhere near the dialer. The word list is intentionally static; anything
// smarter belongs to a dedicated moderation service.
package moderation

import (
	"fmt"
	"strings"
)

// Category is the kind of banned content that was matched.
type Category string

const (
	CategoryExplicit Category = "explicit"
	CategoryDrugs    Category = "drugs"
	CategoryHarmful  Category = "harmful"
)

// Violation reports a banned-content match. It never echoes the matched word
// back to the user, only the category.
type Violation struct {
	Category Category
}

func (v *Violation) Error() string {
	return fmt.Sprintf("contains banned %s content. Please revise your input", v.Category)
}

var bannedWords = map[Category][]string{
	CategoryExplicit: {"xxx", "porn", "nsfw"},
	CategoryDrugs:    {"cocaine", "heroin", "meth"},
	CategoryHarmful:  {"kill", "murder", "suicide"},
}

// Scan checks text against every banned-word category and returns a
// *Violation on the first match. Matching is case-insensitive substring
// search, same as the rest of the platform expects.
func Scan(text string) error {
	lower := strings.ToLower(text)
	for _, cat := range []Category{CategoryExplicit, CategoryDrugs, CategoryHarmful} {
		for _, w := range bannedWords[cat] {
			if strings.Contains(lower, w) {
				return &Violation{Category: cat}
			}
		}
	}
	return nil
}
