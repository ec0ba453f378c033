package contact

import (
	"slices"
	"strings"
)

// Similarity weights.
const (
	GivenNameWeight   = 5
	SurNameWeight     = 5
	DisplayNameWeight = 10
	EmailWeight       = 10
	BirthdayWeight    = 5

	// SimilarityThreshold is the score at which two contacts are
	// considered the same person.
	SimilarityThreshold = 9
)

// SimilarityScore rates how likely a and b describe the same person. String
// comparisons ignore case and surrounding whitespace and only score when
// both sides are set. A shared e-mail address scores once no matter how many
// addresses match.
func SimilarityScore(a, b *Contact) int {
	if a == nil || b == nil {
		return 0
	}
	score := 0
	if sameText(a.GivenName, b.GivenName) {
		score += GivenNameWeight
	}
	if sameText(a.SurName, b.SurName) {
		score += SurNameWeight
	}
	if sameText(a.DisplayName, b.DisplayName) {
		score += DisplayNameWeight
	}
	if shareEmail(a, b) {
		score += EmailWeight
	}
	if !a.Birthday.IsZero() && !b.Birthday.IsZero() && sameDay(a, b) {
		score += BirthdayWeight
	}
	return score
}

// IsSimilar reports whether a and b reach SimilarityThreshold.
func IsSimilar(a, b *Contact) bool {
	return SimilarityScore(a, b) >= SimilarityThreshold
}

// FindSimilar returns the candidates similar to c, best match first.
func FindSimilar(c *Contact, candidates []*Contact) []*Contact {
	type scored struct {
		c     *Contact
		score int
	}
	var hits []scored
	for _, cand := range candidates {
		if cand == nil || cand == c || (c.ID != "" && cand.ID == c.ID) {
			continue
		}
		if s := SimilarityScore(c, cand); s >= SimilarityThreshold {
			hits = append(hits, scored{cand, s})
		}
	}
	slices.SortStableFunc(hits, func(x, y scored) int { return y.score - x.score })
	out := make([]*Contact, len(hits))
	for i, h := range hits {
		out[i] = h.c
	}
	return out
}

func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func shareEmail(a, b *Contact) bool {
	for _, x := range a.Emails() {
		for _, y := range b.Emails() {
			if sameText(x, y) {
				return true
			}
		}
	}
	return false
}

func sameDay(a, b *Contact) bool {
	ay, am, ad := a.Birthday.UTC().Date()
	by, bm, bd := b.Birthday.UTC().Date()
	return ay == by && am == bm && ad == bd
}
