package compat

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"bare-backend/internal/shared/config"
)

// ErrMalformedModelOutput is the single unrecoverable normalization
// failure: the decoded model reply is not a JSON object. Every other
// deficiency is repaired in place with defaults.
var ErrMalformedModelOutput = errors.New("malformed model output")

var retinoidPattern = regexp.MustCompile(`(?i)retin(al|ol)|retinoid`)

// Normalize reconstructs a complete, schema-conformant Report from the
// untrusted decoded model output. originalProducts is the user's query
// list, used to synthesize placeholder entries when the model dropped the
// product list. policy is one of config.PairPolicy*.
//
// The function is pure: no I/O, deterministic for identical inputs.
func Normalize(out any, originalProducts []string, policy string) (Report, error) {
	top, ok := out.(map[string]any)
	if !ok || top == nil {
		return Report{}, fmt.Errorf("%w: top-level value must be an object, got %s", ErrMalformedModelOutput, describeValue(out))
	}

	report := Report{
		RoutineRating:  normalizeRating(top["routine_rating"]),
		ScoreRationale: stringOr(top["score_rationale"], defaults.ScoreRationale),
		RoutinePlan:    normalizePlan(top["routine_plan"]),
		Products:       normalizeProducts(top["products"], originalProducts),
	}
	report.Analysis = normalizeAnalysis(top["analysis"])

	applyRetinoidGuardrail(&report)

	switch policy {
	case config.PairPolicyCompletion:
		report.Analysis.Pairs = completePairs(report.Analysis.Pairs, report.Products)
	default:
		report.Analysis.Pairs = riskOnlyPairs(report.Analysis.Pairs)
		report.Analysis.PairsSummary = summarizePairs(report.Analysis.Pairs)
	}

	applyCitationReminder(&report)

	return report, nil
}

func normalizeRating(v any) RoutineRating {
	block, ok := v.(map[string]any)
	if !ok {
		long := defaults.LongTermSafety
		return RoutineRating{
			BarrierSafety:  defaults.BarrierSafety,
			IrritationRisk: defaults.IrritationRisk,
			Efficacy:       defaults.Efficacy,
			Compatibility:  defaults.Compatibility,
			LongTermSafety: &long,
		}
	}
	rating := RoutineRating{
		BarrierSafety:  clampRating(block["barrier_safety"], defaults.BarrierSafety),
		IrritationRisk: clampRating(block["irritation_risk"], defaults.IrritationRisk),
		Efficacy:       clampRating(block["efficacy"], defaults.Efficacy),
		Compatibility:  clampRating(block["compatibility"], defaults.Compatibility),
	}
	if n, ok := asNumber(block["long_term_safety"]); ok {
		long := clampInt(roundHalfUp(n))
		rating.LongTermSafety = &long
	}
	return rating
}

// clampRating applies round-half-up then clamps to [0,5]. Missing or
// non-numeric values take the neutral default, not zero, so partial data
// does not read as maximally unsafe.
func clampRating(v any, def int) int {
	n, ok := asNumber(v)
	if !ok {
		return def
	}
	return clampInt(roundHalfUp(n))
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

func clampInt(n int) int {
	if n < ratingMin {
		return ratingMin
	}
	if n > ratingMax {
		return ratingMax
	}
	return n
}

func normalizePlan(v any) RoutinePlan {
	plan := RoutinePlan{
		AM:          []string{},
		PM:          []string{},
		Frequencies: map[string]string{},
	}
	block, ok := v.(map[string]any)
	if !ok {
		return plan
	}
	plan.AM = stringSlice(block["am"])
	plan.PM = stringSlice(block["pm"])
	if freq, ok := block["frequencies"].(map[string]any); ok {
		for k, raw := range freq {
			if s, ok := raw.(string); ok {
				plan.Frequencies[k] = s
			}
		}
	}
	return plan
}

func normalizeProducts(v any, originalProducts []string) []ProductEntry {
	source, ok := v.([]any)
	if !ok {
		entries := make([]ProductEntry, 0, len(originalProducts))
		for _, query := range originalProducts {
			entries = append(entries, placeholderProduct(query))
		}
		return entries
	}
	entries := make([]ProductEntry, 0, len(source))
	for _, raw := range source {
		block, _ := raw.(map[string]any)
		entry := ProductEntry{
			Query:          stringOr(block["query"], ""),
			MatchedProduct: stringOr(block["matched_product"], stringOr(block["name"], "")),
			Role:           stringOr(block["role"], defaults.Role),
			KeyBenefits:    capped(stringSliceOr(block["key_benefits"], []string{defaults.Benefit}), maxKeyBenefits),
			Cautions:       capped(stringSliceOr(block["cautions"], []string{}), maxCautions),
			Ingredients:    normalizeIngredients(block["ingredients_inci"]),
			Citations:      stringSliceOr(block["citations"], []string{}),
			SkinImpact:     stringOr(block["skin_impact"], defaults.SkinImpact),
		}
		entries = append(entries, entry)
	}
	return entries
}

func placeholderProduct(query string) ProductEntry {
	return ProductEntry{
		Query:          query,
		MatchedProduct: query,
		Role:           defaults.Role,
		KeyBenefits:    []string{defaults.Benefit},
		Cautions:       []string{},
		Ingredients:    Ingredients{Unknown: true},
		Citations:      []string{},
		SkinImpact:     defaults.SkinImpact,
	}
}

func normalizeIngredients(v any) Ingredients {
	block, ok := v.(map[string]any)
	if !ok {
		return Ingredients{Unknown: true}
	}
	names, ok := block["names"].([]any)
	if !ok {
		return Ingredients{Unknown: true}
	}
	return Ingredients{Names: stringSlice(names)}
}

func normalizeAnalysis(v any) Analysis {
	analysis := Analysis{
		Pairs:                 []PairInteraction{},
		GlobalObservations:    []string{defaults.Observation},
		Suggestions:           []string{},
		MakeupSkincareSynergy: []string{},
	}
	block, ok := v.(map[string]any)
	if !ok {
		return analysis
	}
	if obs, ok := block["global_observations"].([]any); ok {
		analysis.GlobalObservations = stringSlice(obs)
	}
	analysis.Suggestions = stringSliceOr(block["suggestions"], []string{})
	analysis.MakeupSkincareSynergy = stringSliceOr(block["makeup_skincare_synergy"], []string{})
	if pairs, ok := block["pairs"].([]any); ok {
		for _, raw := range pairs {
			if pair, ok := normalizePair(raw); ok {
				analysis.Pairs = append(analysis.Pairs, pair)
			}
		}
	}
	return analysis
}

// normalizePair coerces one source pair. Pairs without exactly two
// non-empty names are dropped; out-of-enum flag fields fall back to the
// conservative end of each enum.
func normalizePair(v any) (PairInteraction, bool) {
	block, ok := v.(map[string]any)
	if !ok {
		return PairInteraction{}, false
	}
	between := stringSlice(block["between"])
	if len(between) != 2 || strings.TrimSpace(between[0]) == "" || strings.TrimSpace(between[1]) == "" {
		return PairInteraction{}, false
	}
	pair := PairInteraction{
		Between:     between,
		Flags:       []Flag{},
		Suggestions: stringSliceOr(block["suggestions"], []string{}),
	}
	if flags, ok := block["flags"].([]any); ok {
		for _, rawFlag := range flags {
			flagBlock, ok := rawFlag.(map[string]any)
			if !ok {
				continue
			}
			pair.Flags = append(pair.Flags, normalizeFlag(flagBlock))
		}
	}
	return pair, true
}

func normalizeFlag(block map[string]any) Flag {
	flag := Flag{
		Type:     FlagType(stringOr(block["type"], "")),
		Severity: Severity(stringOr(block["severity"], "")),
		Why:      stringOr(block["why"], defaults.FlagRationale),
		Sources:  stringSliceOr(block["sources"], []string{}),
	}
	if _, ok := validFlagTypes[flag.Type]; !ok {
		flag.Type = FlagCaution
	}
	if _, ok := validSeverities[flag.Severity]; !ok {
		flag.Severity = SeverityLow
	}
	return flag
}

// applyRetinoidGuardrail forces a conservative ramp-up frequency whenever
// a retinoid-family token appears in the frequency keys or any product's
// role or matched name, regardless of what the model supplied.
func applyRetinoidGuardrail(report *Report) {
	freq := report.RoutinePlan.Frequencies

	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	target := ""
	for _, k := range keys {
		if retinoidPattern.MatchString(k) {
			target = k
			break
		}
	}

	needsRamp := target != ""
	if !needsRamp {
		for _, p := range report.Products {
			if retinoidPattern.MatchString(p.Role) || retinoidPattern.MatchString(p.MatchedProduct) {
				needsRamp = true
				break
			}
		}
	}
	if !needsRamp {
		return
	}
	if target == "" {
		target = defaults.RetinoidKey
	}
	freq[target] = defaults.RetinoidRamp
}

// applyCitationReminder appends the citation suggestion when any product
// makes claims without citations. The presence check keeps a second
// normalization pass from duplicating it.
func applyCitationReminder(report *Report) {
	missing := false
	for _, p := range report.Products {
		if (len(p.KeyBenefits) > 0 || len(p.Cautions) > 0) && len(p.Citations) == 0 {
			missing = true
			break
		}
	}
	if !missing {
		return
	}
	for _, s := range report.Analysis.Suggestions {
		if s == defaults.CitationReminder {
			return
		}
	}
	report.Analysis.Suggestions = append(report.Analysis.Suggestions, defaults.CitationReminder)
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func asNumber(v any) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// stringSlice keeps only string elements of a decoded array.
func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringSliceOr(v any, def []string) []string {
	if _, ok := v.([]any); !ok {
		return def
	}
	return stringSlice(v)
}

func capped(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	return items[:max]
}
