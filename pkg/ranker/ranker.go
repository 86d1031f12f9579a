// Package ranker scores generated candidate texts against a fixed
// engagement rubric and picks the best one. The generation backend is
// stochastic; sampling several candidates and re-ranking them here keeps
// the final choice deterministic and auditable.
package ranker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/murmurbot/murmur/pkg/types"
)

// Signal weights. Fixed, sum to 1.0.
const (
	weightQuestion    = 0.25
	weightSimplicity  = 0.20
	weightEmoji       = 0.15
	weightOpening     = 0.15
	weightPunctuation = 0.10
	weightFirstPerson = 0.10
	weightNoSpam      = 0.05
)

var (
	genericOpening = regexp.MustCompile(`(?i)^\s*(hey everyone|hello everyone|hi everyone|hey guys|hi there|hello there|greetings|dear community)`)
	firstPerson    = regexp.MustCompile(`(?i)\b(i|me|my|mine|we|our)\b`)
	allCapsWord    = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	urlPattern     = regexp.MustCompile(`https?://\S+`)
)

// Acronyms common in the community that should not read as shouting.
var capsWhitelist = map[string]bool{
	"API": true, "FYI": true, "IMO": true, "AMA": true,
	"GPU": true, "NFT": true, "USD": true, "LOL": true,
}

// Score rates one candidate in [0, 1].
func Score(text string) float64 {
	score := 0.0

	if strings.Contains(text, "?") {
		score += weightQuestion
	}
	score += simplicityScore(text)
	if containsEmoji(text) {
		score += weightEmoji
	}
	if !genericOpening.MatchString(text) {
		score += weightOpening
	}
	score += punctuationScore(text)
	if firstPerson.MatchString(text) {
		score += weightFirstPerson
	}
	if !looksSpammy(text) {
		score += weightNoSpam
	}

	return score
}

// ScoreAll rates every candidate, preserving order.
func ScoreAll(candidates []string) []types.ScoredCandidate {
	scored := make([]types.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, types.ScoredCandidate{Text: c, Score: Score(c)})
	}
	return scored
}

// Best returns the highest-scoring candidate. Ties break toward the earliest
// candidate, so the result is independent of generation timing.
func Best(candidates []string) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		if s := Score(c); s > bestScore {
			best = c
			bestScore = s
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// simplicityScore rewards short average token length: full weight under 6
// characters, half under 8, nothing above.
func simplicityScore(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}
	total := 0
	for _, tok := range tokens {
		total += len([]rune(tok))
	}
	avg := float64(total) / float64(len(tokens))
	switch {
	case avg < 6:
		return weightSimplicity
	case avg < 8:
		return weightSimplicity / 2
	default:
		return 0
	}
}

// punctuationScore rewards restraint: fewer than 0.3 punctuation marks per
// token earns full weight, fewer than 0.5 earns half.
func punctuationScore(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}
	punct := 0
	for _, r := range text {
		if unicode.IsPunct(r) {
			punct++
		}
	}
	ratio := float64(punct) / float64(len(tokens))
	switch {
	case ratio < 0.3:
		return weightPunctuation
	case ratio < 0.5:
		return weightPunctuation / 2
	default:
		return 0
	}
}

func containsEmoji(text string) bool {
	for _, r := range text {
		if r >= 0x1F300 && r <= 0x1FAFF {
			return true
		}
	}
	return false
}

// looksSpammy flags shouted words and repeated links.
func looksSpammy(text string) bool {
	for _, w := range allCapsWord.FindAllString(text, -1) {
		if !capsWhitelist[w] {
			return true
		}
	}
	urls := urlPattern.FindAllString(text, -1)
	seen := make(map[string]int, len(urls))
	for _, u := range urls {
		seen[u]++
		if seen[u] > 1 {
			return true
		}
	}
	return false
}
