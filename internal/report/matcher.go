// SPDX-License-Identifier: Apache-2.0

package report

import (
	"strings"
	"unicode"

	"github.com/cardioproj/cardio-mcp/internal/schema"
)

const (
	// containmentConfidence is the fixed score for substring matches
	// between a label and a synonym.
	containmentConfidence = 0.9
	// fuzzyThreshold is the minimum similarity ratio a synonym must exceed
	// to count as a fuzzy match.
	fuzzyThreshold = 0.75
	// minContainmentLen keeps very short synonyms ("bp", "hr") out of the
	// containment tier, where they would match inside unrelated words.
	// They still match at the exact tier.
	minContainmentLen = 3
)

// Match is a resolved label: the canonical field it denotes and the
// continuous confidence score of the resolution.
type Match struct {
	FieldKey string
	Score    float64
}

type synonymEntry struct {
	fieldKey string
	text     string
}

// Matcher resolves raw label strings to canonical fields using a strict
// three-tier strategy: exact match over label variants and synonyms,
// substring containment over synonyms, then fuzzy similarity over synonyms.
// Exact matches dominate even when a different field's synonym is textually
// closer; that ordering is what keeps clinically distinct fields from being
// miscoded by coincidental string similarity.
type Matcher struct {
	exact    map[string]string
	synonyms []synonymEntry
}

// NewMatcher builds a matcher over the registry. Label variants and
// synonyms are normalized once at construction.
func NewMatcher(reg *schema.Registry) *Matcher {
	m := &Matcher{exact: make(map[string]string)}
	for _, f := range reg.Fields() {
		for _, label := range f.Labels {
			norm := NormalizeLabel(label)
			if norm == "" {
				continue
			}
			// Registry order wins on (misconfigured) duplicate variants.
			if _, taken := m.exact[norm]; !taken {
				m.exact[norm] = f.Key
			}
		}
		for _, syn := range f.Synonyms {
			norm := NormalizeLabel(syn)
			if norm == "" {
				continue
			}
			if _, taken := m.exact[norm]; !taken {
				m.exact[norm] = f.Key
			}
			m.synonyms = append(m.synonyms, synonymEntry{fieldKey: f.Key, text: norm})
		}
	}
	return m
}

// NormalizeLabel lowercases, strips punctuation, and collapses whitespace.
func NormalizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Match resolves a raw label. Returns nil when no tier succeeds; the caller
// then records the label as an unknown field rather than guessing.
func (m *Matcher) Match(label string) *Match {
	norm := NormalizeLabel(label)
	if norm == "" {
		return nil
	}

	// Tier 1: exact.
	if key, ok := m.exact[norm]; ok {
		return &Match{FieldKey: key, Score: 1.0}
	}

	// Tier 2: containment, best candidate across all synonyms.
	var best *Match
	for _, syn := range m.synonyms {
		if len(syn.text) < minContainmentLen || len(norm) < minContainmentLen {
			continue
		}
		if strings.Contains(norm, syn.text) || strings.Contains(syn.text, norm) {
			if best == nil || containmentConfidence > best.Score {
				best = &Match{FieldKey: syn.fieldKey, Score: containmentConfidence}
			}
		}
	}
	if best != nil {
		return best
	}

	// Tier 3: fuzzy.
	var (
		bestKey   string
		bestRatio float64
	)
	for _, syn := range m.synonyms {
		if ratio := SimilarityRatio(norm, syn.text); ratio > bestRatio {
			bestRatio = ratio
			bestKey = syn.fieldKey
		}
	}
	if bestRatio > fuzzyThreshold {
		return &Match{FieldKey: bestKey, Score: bestRatio}
	}
	return nil
}
