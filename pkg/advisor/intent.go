package advisor

import (
	"regexp"
	"strings"
)

// IntentDetector decides whether a user message should trigger a catalog search.
type IntentDetector interface {
	ShouldSearch(text string) bool
}

var discoveryPhrases = []string{
	"find", "search", "recommend", "recommendations", "suggest", "show me", "looking for",
	"look for", "options", "packages", "teams", "compare", "match", "matches", "nearby",
	"near me", "near my", "available", "budget", "what can i get", "who can i sponsor",
}

// Negated discovery ("don't search", "no need to find") keeps the turn conversational.
var negatedDiscovery = regexp.MustCompile(`\b(don'?t|do not|no need to|stop)\s+(search|find|recommend|look)`)

var wordBoundary = regexp.MustCompile(`[^a-z0-9' ]+`)

// KeywordIntent matches discovery phrases on word boundaries.
type KeywordIntent struct {
	phrases []string
}

func NewKeywordIntent(extra ...string) *KeywordIntent {
	phrases := append([]string(nil), discoveryPhrases...)
	for _, p := range extra {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			phrases = append(phrases, p)
		}
	}
	return &KeywordIntent{phrases: phrases}
}

func (k *KeywordIntent) ShouldSearch(text string) bool {
	normalized := " " + strings.Join(strings.Fields(wordBoundary.ReplaceAllString(strings.ToLower(text), " ")), " ") + " "
	if strings.TrimSpace(normalized) == "" {
		return false
	}
	if negatedDiscovery.MatchString(normalized) {
		return false
	}
	for _, p := range k.phrases {
		if strings.Contains(normalized, " "+p+" ") {
			return true
		}
	}
	return false
}
