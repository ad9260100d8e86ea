package compat

import (
	"bytes"
	"encoding/json"
)

// Report is the validated compatibility report returned to clients. It is
// only ever constructed by Normalize, so every field is populated and every
// numeric score is in range.
type Report struct {
	RoutineRating  RoutineRating  `json:"routine_rating"`
	ScoreRationale string         `json:"score_rationale"`
	RoutinePlan    RoutinePlan    `json:"routine_plan"`
	Products       []ProductEntry `json:"products"`
	Analysis       Analysis       `json:"analysis"`
}

// RoutineRating holds the five-factor 0-5 scores.
type RoutineRating struct {
	BarrierSafety  int  `json:"barrier_safety"`
	IrritationRisk int  `json:"irritation_risk"`
	Efficacy       int  `json:"efficacy"`
	Compatibility  int  `json:"compatibility"`
	LongTermSafety *int `json:"long_term_safety,omitempty"`
}

// RoutinePlan orders the routine into AM/PM steps plus per-active frequencies.
type RoutinePlan struct {
	AM          []string          `json:"am"`
	PM          []string          `json:"pm"`
	Frequencies map[string]string `json:"frequencies"`
}

// ProductEntry describes one resolved product from the user's list.
type ProductEntry struct {
	Query          string      `json:"query"`
	MatchedProduct string      `json:"matched_product"`
	Role           string      `json:"role"`
	KeyBenefits    []string    `json:"key_benefits"`
	Cautions       []string    `json:"cautions"`
	Ingredients    Ingredients `json:"ingredients_inci"`
	Citations      []string    `json:"citations"`
	SkinImpact     string      `json:"skin_impact"`
}

// Ingredients is either a named INCI set or the sentinel "unknown".
type Ingredients struct {
	Names   []string
	Unknown bool
}

var unknownSentinel = []byte(`"unknown"`)

// MarshalJSON emits {"names":[...]} or the string "unknown".
func (i Ingredients) MarshalJSON() ([]byte, error) {
	if i.Unknown {
		return unknownSentinel, nil
	}
	names := i.Names
	if names == nil {
		names = []string{}
	}
	return json.Marshal(struct {
		Names []string `json:"names"`
	}{Names: names})
}

// UnmarshalJSON accepts the named form or the sentinel; anything else
// collapses to unknown.
func (i *Ingredients) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), unknownSentinel) {
		*i = Ingredients{Unknown: true}
		return nil
	}
	var named struct {
		Names []string `json:"names"`
	}
	if err := json.Unmarshal(data, &named); err != nil || named.Names == nil {
		*i = Ingredients{Unknown: true}
		return nil
	}
	*i = Ingredients{Names: named.Names}
	return nil
}

// FlagType classifies one pairwise interaction concern.
type FlagType string

const (
	FlagOkTogether               FlagType = "ok_together"
	FlagIrritationStack          FlagType = "irritation_stack"
	FlagRedundancy               FlagType = "redundancy"
	FlagCaution                  FlagType = "caution"
	FlagMakeupSkincareInteraction FlagType = "makeup_skincare_interaction"
	FlagPillingRisk              FlagType = "pilling_risk"
	FlagOxidizationRisk          FlagType = "oxidization_risk"
)

var validFlagTypes = map[FlagType]struct{}{
	FlagOkTogether:                {},
	FlagIrritationStack:           {},
	FlagRedundancy:                {},
	FlagCaution:                   {},
	FlagMakeupSkincareInteraction: {},
	FlagPillingRisk:               {},
	FlagOxidizationRisk:           {},
}

// Severity ranks how much an interaction matters.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var validSeverities = map[Severity]struct{}{
	SeverityLow:    {},
	SeverityMedium: {},
	SeverityHigh:   {},
}

// Flag is one typed, severity-ranked annotation on a product pair.
type Flag struct {
	Type     FlagType `json:"type"`
	Severity Severity `json:"severity"`
	Why      string   `json:"why"`
	Sources  []string `json:"sources"`
}

// PairInteraction relates exactly two matched product names.
type PairInteraction struct {
	Between     []string `json:"between"`
	Flags       []Flag   `json:"flags"`
	Suggestions []string `json:"suggestions"`
}

// PairsSummary aggregates the pair list for quick rendering.
type PairsSummary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	Headlines  []string       `json:"headlines"`
}

// Analysis aggregates pairwise findings and routine-level notes.
type Analysis struct {
	Pairs                 []PairInteraction `json:"pairs"`
	GlobalObservations    []string          `json:"global_observations"`
	Suggestions           []string          `json:"suggestions"`
	MakeupSkincareSynergy []string          `json:"makeup_skincare_synergy"`
	PairsSummary          *PairsSummary     `json:"pairs_summary,omitempty"`
}
