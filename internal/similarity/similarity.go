// Package similarity decides whether two free-text product names denote the
// same product, without any external call. Receipt spellings are never
// identical twice ("Café Pilão 500g" vs "CAFE PILAO"), so product identity is
// inferred here or via the persisted name mappings, never assumed.
package similarity

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the similarity score at or above which two names are
// considered the same product.
const DefaultThreshold = 0.7

// Normalize lowercases a name, strips everything that is not a letter, digit
// or whitespace, collapses whitespace runs to a single space and trims.
// It is total, deterministic and idempotent.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity scores two names in [0,1]: 1.0 when the normalized forms are
// equal (including both empty), otherwise 1 - lev/maxLen over the normalized
// forms.
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == nb {
		return 1.0
	}

	ra := []rune(na)
	rb := []rune(nb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes the classic edit distance with unit costs for insert,
// delete and substitute, using a two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// IsSameProduct reports whether two names denote the same product, by
// verbatim equality, whole-word containment of one normalized name in the
// other, or similarity at or above the threshold. Containment handles the
// generic name inside the specific one ("Leite" vs "Leite Integral Parmalat
// 1L") and is word-bounded so a short token inside an unrelated word does not
// match.
func IsSameProduct(a, b string, threshold float64) bool {
	if a == b {
		return true
	}

	na := Normalize(a)
	nb := Normalize(b)
	if containsWords(na, nb) || containsWords(nb, na) {
		return true
	}

	return Similarity(a, b) >= threshold
}

// containsWords reports whether the words of inner appear as a contiguous
// sequence within the words of outer. Both arguments must be normalized.
func containsWords(outer, inner string) bool {
	if inner == "" {
		return false
	}
	ow := strings.Fields(outer)
	iw := strings.Fields(inner)
	if len(iw) == 0 || len(iw) > len(ow) {
		return false
	}
	for start := 0; start+len(iw) <= len(ow); start++ {
		match := true
		for k := range iw {
			if ow[start+k] != iw[k] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Group is one cluster of names believed to denote the same product. The
// representative is the first name seen for the cluster.
type Group struct {
	Representative string
	Members        []string
}

// GroupSimilar greedily clusters names in a single pass: each name joins the
// first existing group whose representative it matches, or starts a new one.
// The result depends on input order (first seen becomes representative) but
// is deterministic for a fixed input order.
func GroupSimilar(names []string, threshold float64) []Group {
	var groups []Group
	for _, name := range names {
		joined := false
		for i := range groups {
			if IsSameProduct(name, groups[i].Representative, threshold) {
				groups[i].Members = append(groups[i].Members, name)
				joined = true
				break
			}
		}
		if !joined {
			groups = append(groups, Group{Representative: name, Members: []string{name}})
		}
	}
	return groups
}
