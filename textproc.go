package main

import (
	"sort"
	"strings"
	"unicode"
)

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func isAlphaToken(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return tok != ""
}

// topTokens returns the k most frequent alphabetic non-stopword tokens
// across values, case-folded, most frequent first. Ties break on first
// appearance so the output is deterministic.
func topTokens(values []string, k int) []TokenCount {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		for _, tok := range tokenize(v) {
			if !isAlphaToken(tok) || stopwords[tok] {
				continue
			}
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	firstSeen := make(map[string]int, len(order))
	for i, tok := range order {
		firstSeen[tok] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	out := make([]TokenCount, len(order))
	for i, tok := range order {
		out[i] = TokenCount{Token: tok, Count: counts[tok]}
	}
	return out
}

// foldValue is the comparison form used to spot inconsistent
// capitalization or spacing: trimmed and case-folded.
func foldValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var stopwords = func() map[string]bool {
	list := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an",
		"and", "any", "are", "as", "at", "be", "because", "been", "before",
		"being", "below", "between", "both", "but", "by", "can", "did", "do",
		"does", "doing", "down", "during", "each", "few", "for", "from",
		"further", "had", "has", "have", "having", "he", "her", "here", "hers",
		"herself", "him", "himself", "his", "how", "i", "if", "in", "into",
		"is", "it", "its", "itself", "just", "me", "more", "most", "my",
		"myself", "no", "nor", "not", "now", "of", "off", "on", "once", "only",
		"or", "other", "our", "ours", "ourselves", "out", "over", "own", "s",
		"same", "she", "should", "so", "some", "such", "t", "than", "that",
		"the", "their", "theirs", "them", "themselves", "then", "there",
		"these", "they", "this", "those", "through", "to", "too", "under",
		"until", "up", "very", "was", "we", "were", "what", "when", "where",
		"which", "while", "who", "whom", "why", "will", "with", "you", "your",
		"yours", "yourself", "yourselves",
	}
	m := make(map[string]bool, len(list))
	for _, w := range list {
		m[w] = true
	}
	return m
}()
