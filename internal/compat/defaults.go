package compat

// reportDefaults collects every fixed string and neutral score the
// normalizer substitutes for missing data, so they are declared once.
type reportDefaults struct {
	BarrierSafety  int
	IrritationRisk int
	Efficacy       int
	Compatibility  int
	LongTermSafety int

	ScoreRationale string
	Role           string
	Benefit        string
	SkinImpact     string
	Observation    string
	FlagRationale  string

	RetinoidRamp     string
	RetinoidKey      string
	CitationReminder string

	OkWhy             string
	OkSuggestion      string
	MakeupWhy         string
	MakeupSuggestion  string
	SynthesizedSource string
}

var defaults = reportDefaults{
	BarrierSafety:  3,
	IrritationRisk: 2,
	Efficacy:       3,
	Compatibility:  3,
	LongTermSafety: 3,

	ScoreRationale: "Analysis completed successfully.",
	Role:           "Skincare product",
	Benefit:        "General skincare benefits",
	SkinImpact:     "General product effects on skin",
	Observation:    "Routine analysis completed.",
	FlagRationale:  "No rationale provided.",

	RetinoidRamp:     "start 2-3 nights/week for 2-3 weeks, then 3-4 nights/week if tolerated",
	RetinoidKey:      "retinal",
	CitationReminder: "Some product claims lack citations; prefer brand pages or INCIDecoder when listing INCI or ingredient-based benefits.",

	OkWhy:             "Products appear compatible based on general formulation principles.",
	OkSuggestion:      "Monitor for any irritation when using together.",
	MakeupWhy:         "Makeup and skincare products can work well together when applied in the correct order.",
	MakeupSuggestion:  "Apply skincare first, allow to absorb, then apply makeup.",
	SynthesizedSource: "General skincare compatibility guidelines",
}

const (
	maxKeyBenefits = 3
	maxCautions    = 2

	ratingMin = 0
	ratingMax = 5
)
