package compat

import (
	"fmt"
	"strings"
)

// Keyword tables backing the makeup/skincare pair classifier. Matching is
// substring-based over lowercased matched product names.
var (
	makeupTokens   = []string{"concealer", "blush", "mascara", "foundation", "lip"}
	skincareTokens = []string{"sunscreen", "toner", "cleanser", "cream", "serum"}
)

// completePairs implements the legacy completion policy: the output holds
// every unordered pair over the product list, synthesizing a low-severity
// default for any pair the model omitted.
func completePairs(pairs []PairInteraction, products []ProductEntry) []PairInteraction {
	if len(products) < 2 {
		return pairs
	}

	existing := make(map[string]struct{}, len(pairs))
	for _, pair := range pairs {
		existing[pairKey(pair.Between[0], pair.Between[1])] = struct{}{}
	}

	out := pairs
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			first := productName(products[i])
			second := productName(products[j])
			key := pairKey(first, second)
			if _, ok := existing[key]; ok {
				continue
			}
			existing[key] = struct{}{}
			out = append(out, synthesizePair(first, second))
		}
	}
	return out
}

func productName(p ProductEntry) string {
	if p.MatchedProduct != "" {
		return p.MatchedProduct
	}
	return p.Query
}

// pairKey builds a case-insensitive, order-independent identity for an
// unordered pair.
func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func synthesizePair(first, second string) PairInteraction {
	flagType := FlagOkTogether
	why := defaults.OkWhy
	suggestion := defaults.OkSuggestion
	if isMakeupSkincarePair(first, second) {
		flagType = FlagMakeupSkincareInteraction
		why = defaults.MakeupWhy
		suggestion = defaults.MakeupSuggestion
	}
	return PairInteraction{
		Between: []string{first, second},
		Flags: []Flag{{
			Type:     flagType,
			Severity: SeverityLow,
			Why:      why,
			Sources:  []string{defaults.SynthesizedSource},
		}},
		Suggestions: []string{suggestion},
	}
}

// isMakeupSkincarePair reports whether one name matches a makeup token and
// the other a skincare token, in either order.
func isMakeupSkincarePair(a, b string) bool {
	return (containsAny(a, makeupTokens) && containsAny(b, skincareTokens)) ||
		(containsAny(b, makeupTokens) && containsAny(a, skincareTokens))
}

func containsAny(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// riskOnlyPairs implements the default policy: only pairs carrying at
// least one medium or high severity flag are forwarded; nothing is
// synthesized.
func riskOnlyPairs(pairs []PairInteraction) []PairInteraction {
	out := make([]PairInteraction, 0, len(pairs))
	for _, pair := range pairs {
		if maxSeverity(pair) != SeverityLow {
			out = append(out, pair)
		}
	}
	return out
}

func maxSeverity(pair PairInteraction) Severity {
	max := SeverityLow
	for _, flag := range pair.Flags {
		switch flag.Severity {
		case SeverityHigh:
			return SeverityHigh
		case SeverityMedium:
			max = SeverityMedium
		}
	}
	return max
}

// summarizePairs derives counts and one headline per pair for the UI.
func summarizePairs(pairs []PairInteraction) *PairsSummary {
	summary := &PairsSummary{
		Total:      len(pairs),
		BySeverity: map[string]int{},
		Headlines:  []string{},
	}
	for _, pair := range pairs {
		severity := maxSeverity(pair)
		summary.BySeverity[string(severity)]++
		why := defaults.FlagRationale
		for _, flag := range pair.Flags {
			if flag.Severity == severity {
				why = flag.Why
				break
			}
		}
		summary.Headlines = append(summary.Headlines, fmt.Sprintf("%s + %s: %s", pair.Between[0], pair.Between[1], why))
	}
	return summary
}
