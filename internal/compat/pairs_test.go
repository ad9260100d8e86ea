package compat

import (
	"encoding/json"
	"testing"

	"bare-backend/internal/shared/config"
)

func TestCompletionPolicyGeneratesFullMatrix(t *testing.T) {
	raw := `{"products": [
		{"matched_product": "CeraVe Foaming Cleanser"},
		{"matched_product": "The Ordinary Niacinamide 10% + Zinc 1%"},
		{"matched_product": "La Roche-Posay Anthelios Sunscreen"},
		{"matched_product": "Maybelline Fit Me Foundation"}
	]}`
	report, err := Normalize(decode(t, raw), nil, config.PairPolicyCompletion)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	// 4 products -> 6 unordered pairs.
	if len(report.Analysis.Pairs) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(report.Analysis.Pairs))
	}

	seen := map[string]struct{}{}
	for _, pair := range report.Analysis.Pairs {
		key := pairKey(pair.Between[0], pair.Between[1])
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate pair %q", key)
		}
		seen[key] = struct{}{}
	}
}

func TestCompletionPolicyKeepsSuppliedPairs(t *testing.T) {
	raw := `{
		"products": [
			{"matched_product": "A Cleanser"},
			{"matched_product": "B Serum"}
		],
		"analysis": {"pairs": [{
			"between": ["a cleanser", "B SERUM"],
			"flags": [{"type": "irritation_stack", "severity": "medium", "why": "supplied"}]
		}]}
	}`
	report, err := Normalize(decode(t, raw), nil, config.PairPolicyCompletion)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	// Name matching is case-insensitive and order-independent, so the
	// supplied pair satisfies the matrix and nothing is synthesized.
	if len(report.Analysis.Pairs) != 1 {
		t.Fatalf("expected supplied pair only, got %d pairs", len(report.Analysis.Pairs))
	}
	if report.Analysis.Pairs[0].Flags[0].Why != "supplied" {
		t.Fatalf("supplied pair should be forwarded untouched")
	}
}

func TestSynthesizedPairClassification(t *testing.T) {
	cases := []struct {
		name  string
		first string
		second string
		want  FlagType
	}{
		{name: "makeup vs skincare", first: "Maybelline Fit Me Foundation", second: "CeraVe Moisturizing Cream", want: FlagMakeupSkincareInteraction},
		{name: "skincare vs makeup reversed", first: "Anua Heartleaf Toner", second: "NYX Lip Liner", want: FlagMakeupSkincareInteraction},
		{name: "two skincare", first: "CeraVe Foaming Cleanser", second: "Beauty of Joseon Sunscreen", want: FlagOkTogether},
		{name: "no recognized tokens", first: "Mystery Balm", second: "Another Balm", want: FlagOkTogether},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			pair := synthesizePair(tt.first, tt.second)
			if pair.Flags[0].Type != tt.want {
				t.Fatalf("classification = %q, want %q", pair.Flags[0].Type, tt.want)
			}
			if pair.Flags[0].Severity != SeverityLow {
				t.Fatalf("synthesized pairs must be low severity")
			}
			if len(pair.Suggestions) == 0 || len(pair.Flags[0].Sources) == 0 {
				t.Fatalf("synthesized pair missing suggestion or source: %+v", pair)
			}
		})
	}
}

func TestRiskOnlyPolicyFiltersLowSeverity(t *testing.T) {
	raw := `{"analysis": {"pairs": [
		{"between": ["A", "B"], "flags": [{"type": "ok_together", "severity": "low", "why": "fine"}]},
		{"between": ["A", "C"], "flags": [{"type": "irritation_stack", "severity": "high", "why": "strong acids"}]},
		{"between": ["B", "C"], "flags": [
			{"type": "ok_together", "severity": "low", "why": "fine"},
			{"type": "redundancy", "severity": "medium", "why": "same actives"}
		]}
	]}}`
	report, err := Normalize(decode(t, raw), []string{"A", "B", "C"}, config.PairPolicyRiskOnly)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(report.Analysis.Pairs) != 2 {
		t.Fatalf("expected 2 risk pairs, got %d", len(report.Analysis.Pairs))
	}
	for _, pair := range report.Analysis.Pairs {
		if maxSeverity(pair) == SeverityLow {
			t.Fatalf("low severity pair leaked through: %+v", pair)
		}
	}
}

func TestRiskOnlyPolicyAttachesSummary(t *testing.T) {
	raw := `{"analysis": {"pairs": [
		{"between": ["A", "C"], "flags": [{"type": "irritation_stack", "severity": "high", "why": "strong acids"}]},
		{"between": ["B", "C"], "flags": [{"type": "redundancy", "severity": "medium", "why": "same actives"}]}
	]}}`
	report, err := Normalize(decode(t, raw), []string{"A", "B", "C"}, config.PairPolicyRiskOnly)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	summary := report.Analysis.PairsSummary
	if summary == nil {
		t.Fatalf("expected pairs summary under risk-only policy")
	}
	if summary.Total != 2 {
		t.Fatalf("summary total = %d, want 2", summary.Total)
	}
	if summary.BySeverity["high"] != 1 || summary.BySeverity["medium"] != 1 {
		t.Fatalf("unexpected severity counts %v", summary.BySeverity)
	}
	if len(summary.Headlines) != 2 {
		t.Fatalf("expected one headline per pair, got %v", summary.Headlines)
	}
}

func TestCompletionPolicyOmitsSummary(t *testing.T) {
	raw := `{"products": [{"matched_product": "A"}, {"matched_product": "B"}]}`
	report, err := Normalize(decode(t, raw), nil, config.PairPolicyCompletion)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if report.Analysis.PairsSummary != nil {
		t.Fatalf("completion policy should not attach a summary")
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := `{
		"routine_plan": {"frequencies": {"zzz retinol": "nightly", "aaa retinal": "nightly", "sunscreen": "AM"}},
		"products": [{"matched_product": "A Foundation"}, {"matched_product": "B Serum"}, {"matched_product": "C Toner"}]
	}`
	first, err := Normalize(decode(t, raw), nil, config.PairPolicyCompletion)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Normalize(decode(t, raw), nil, config.PairPolicyCompletion)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Fatalf("normalization not deterministic:\n%s\n%s", a, b)
		}
	}
}
