// Package classifier maps free text to routing categories, moods and focus areas
// using ordered keyword tables.
package classifier

import "strings"

// Rule tags text that contains any of Keywords.
type Rule[T any] struct {
	Tag      T
	Keywords []string
	Reason   string
}

// MatchFirst returns the tag and reason of the first rule with a keyword present in text.
// Rules are tested in slice order. If nothing matches, fallback and fallbackReason are
// returned; the function never fails.
func MatchFirst[T any](text string, rules []Rule[T], fallback T, fallbackReason string) (T, string) {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		if containsAny(lower, rule.Keywords) {
			return rule.Tag, rule.Reason
		}
	}
	return fallback, fallbackReason
}

// MatchAll returns the tags of every rule with a keyword present in text, in rule order.
func MatchAll[T any](text string, rules []Rule[T]) []T {
	lower := strings.ToLower(text)
	var tags []T
	for _, rule := range rules {
		if containsAny(lower, rule.Keywords) {
			tags = append(tags, rule.Tag)
		}
	}
	return tags
}

// keywords are expected in lower case
func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
