package labreport

import "lab-report-ai/internal/health"

// statusView answers co-occurrence questions over a set of results.
type statusView map[string]TestStatus

func (v statusView) is(key string, s TestStatus) bool {
	got, ok := v[key]
	return ok && got == s
}

func (v statusView) normal(key string) bool { return v.is(key, StatusNormal) }
func (v statusView) low(key string) bool    { return v.is(key, StatusLow) }
func (v statusView) high(key string) bool   { return v.is(key, StatusHigh) }

type patternRule struct {
	insight PatternInsight
	match   func(statusView) bool
}

// Order here is the order insights appear in a report.
var patternRules = []patternRule{
	{
		insight: PatternInsight{
			ID:          "iron-deficiency",
			Title:       "Mild Anemia Signal",
			Description: "Your low hemoglobin combined with normal WBC and platelets suggests a potential iron-deficiency pattern rather than a systemic issue. Consider an iron panel for further clarity.",
			Icon:        "🔬",
		},
		match: func(v statusView) bool {
			return v.low(health.Hemoglobin) && v.normal(health.WBC) && v.normal(health.PlateletCount)
		},
	},
	{
		insight: PatternInsight{
			ID:          "low-blood-counts",
			Title:       "Low Blood Counts",
			Description: "Hemoglobin, white cells and platelets are all below normal. When several blood lines are low together a doctor should review the results soon.",
			Icon:        "🩸",
		},
		match: func(v statusView) bool {
			return v.low(health.Hemoglobin) && v.low(health.WBC) && v.low(health.PlateletCount)
		},
	},
	{
		insight: PatternInsight{
			ID:          "dietary-lipid",
			Title:       "Cardiovascular Attention",
			Description: "Elevated total cholesterol and LDL alongside normal HDL suggests dietary-driven lipid changes. A balanced diet shift could normalize these values within 3–6 months.",
			Icon:        "❤️",
		},
		match: func(v statusView) bool {
			return (v.high(health.TotalCholesterol) || v.high(health.LDL)) && v.normal(health.FastingGlucose)
		},
	},
	{
		insight: PatternInsight{
			ID:          "lipid-imbalance",
			Title:       "Lipid Imbalance",
			Description: "Low HDL together with raised LDL or total cholesterol shifts the balance toward plaque build-up. Regular aerobic exercise and healthy fats help on both sides.",
			Icon:        "⚖️",
		},
		match: func(v statusView) bool {
			return v.low(health.HDL) && (v.high(health.LDL) || v.high(health.TotalCholesterol))
		},
	},
	{
		insight: PatternInsight{
			ID:          "blood-sugar",
			Title:       "Blood Sugar Watch",
			Description: "Your glucose readings are above the normal range. Cutting refined sugar, adding fibre and staying active can bring them down; ask your doctor about an HbA1c test.",
			Icon:        "🍬",
		},
		match: func(v statusView) bool {
			return v.high(health.FastingGlucose) || v.high(health.PostMealGlucose)
		},
	},
	{
		insight: PatternInsight{
			ID:          "blood-pressure",
			Title:       "Blood Pressure Watch",
			Description: "Your blood pressure is above the healthy range. Less salt, regular exercise and stress management help; recheck it over the next few weeks.",
			Icon:        "🩺",
		},
		match: func(v statusView) bool {
			return v.high(health.SystolicBP) || v.high(health.DiastolicBP)
		},
	},
	{
		insight: PatternInsight{
			ID:          "metabolic-stability",
			Title:       "Metabolic Stability",
			Description: "Normal fasting glucose and TSH indicate a stable metabolic profile. Continue your current lifestyle habits to maintain these healthy levels.",
			Icon:        "✅",
		},
		match: func(v statusView) bool {
			return v.normal(health.FastingGlucose) && v.normal(health.TSH)
		},
	},
}

func detectPatterns(tests []TestResult) []PatternInsight {
	v := make(statusView, len(tests))
	for _, t := range tests {
		v[t.ID] = t.Status
	}
	out := []PatternInsight{}
	for _, r := range patternRules {
		if r.match(v) {
			out = append(out, r.insight)
		}
	}
	return out
}
