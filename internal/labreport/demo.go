package labreport

import "lab-report-ai/internal/health"

// DemoMetrics returns the demonstration report's values in extraction units.
func DemoMetrics() health.Metrics {
	return health.Metrics{
		health.Hemoglobin:       11.8,
		health.WBC:              7200,
		health.PlateletCount:    250000,
		health.FastingGlucose:   95,
		health.TotalCholesterol: 215,
		health.HDL:              55,
		health.LDL:              138,
		health.TSH:              2.8,
	}
}

// DemoReport returns a fresh copy of the fixed demonstration report.
func DemoReport() LabReport {
	return LabReport{
		PatientName:    "Demo Patient",
		Date:           "2026-02-27",
		OverallInsight: "Your results are mostly within healthy ranges. A few markers show minor deviations that are worth monitoring. Your hemoglobin is slightly below normal range, and your cholesterol levels could benefit from dietary adjustments. Overall, your health profile looks stable.",
		HealthScore:    82,
		RiskLevel:      RiskLow,
		Tests: []TestResult{
			{
				ID:          "hemoglobin",
				Name:        "Hemoglobin (Hb)",
				Value:       11.8,
				Unit:        "g/dL",
				NormalRange: health.Interval{Min: 12.0, Max: 15.5},
				Status:      StatusLow,
				Severity:    health.StatusWarning,
				Explanation: "Your hemoglobin is slightly below the normal range (12.0–15.5 g/dL for women). This could indicate mild iron-deficiency anemia. Consider increasing iron-rich foods like spinach, lentils, and red meat, paired with vitamin C for better absorption. A follow-up test in 3 months is recommended.",
				Causes: []string{
					"Inadequate dietary iron intake",
					"Vitamin B12 or folate deficiency",
				},
				SuggestedIntakes: []string{
					"Iron supplements (consult healthcare provider)",
					"Spinach, red meat, and lentils",
					"Vitamin C-rich foods (citrus fruits) to boost iron absorption",
				},
			},
			{
				ID:          "wbc",
				Name:        "White Blood Cells (WBC)",
				Value:       7.2,
				Unit:        "×10³/µL",
				NormalRange: health.Interval{Min: 4.5, Max: 11.0},
				Status:      StatusNormal,
				Severity:    health.StatusNormal,
				Explanation: "Your white blood cell count is well within the normal range, indicating a healthy immune system with no signs of infection or immune disorder.",
			},
			{
				ID:          "platelets",
				Name:        "Platelet Count",
				Value:       250,
				Unit:        "×10³/µL",
				NormalRange: health.Interval{Min: 150, Max: 400},
				Status:      StatusNormal,
				Severity:    health.StatusNormal,
				Explanation: "Your platelet count is normal, indicating healthy blood clotting ability. No concerns here.",
			},
			{
				ID:          "glucose",
				Name:        "Fasting Blood Glucose",
				Value:       95,
				Unit:        "mg/dL",
				NormalRange: health.Interval{Min: 70, Max: 100},
				Status:      StatusNormal,
				Severity:    health.StatusNormal,
				Explanation: "Your fasting glucose is within the normal range. Continue maintaining a balanced diet and regular exercise for optimal blood sugar management.",
			},
			{
				ID:          "cholesterol",
				Name:        "Total Cholesterol",
				Value:       215,
				Unit:        "mg/dL",
				NormalRange: health.Interval{Min: 125, Max: 200},
				Status:      StatusHigh,
				Severity:    health.StatusWarning,
				Explanation: "Your total cholesterol is in the borderline high range (200–239 mg/dL). Desirable levels are below 200 mg/dL. Consider reducing saturated fats and trans fats, increasing fiber intake, and adding regular cardiovascular exercise. A follow-up lipid panel in 6 months is advised.",
				Causes: []string{
					"Diet high in saturated and trans fats",
					"Lack of regular cardiovascular exercise",
					"Genetics / family history",
				},
				SuggestedIntakes: []string{
					"Omega-3 fatty acids (flaxseeds, salmon, walnuts)",
					"Soluble fiber (oats, beans, apples)",
				},
			},
			{
				ID:          "hdl",
				Name:        "HDL Cholesterol",
				Value:       55,
				Unit:        "mg/dL",
				NormalRange: health.Interval{Min: 40, Max: 80},
				Status:      StatusNormal,
				Severity:    health.StatusNormal,
				Explanation: `Your HDL ("good") cholesterol is in a healthy range. Levels above 60 mg/dL are considered protective against heart disease — aim to push it higher through regular aerobic exercise and healthy fats (avocado, olive oil, nuts).`,
			},
			{
				ID:          "ldl",
				Name:        "LDL Cholesterol",
				Value:       138,
				Unit:        "mg/dL",
				NormalRange: health.Interval{Min: 50, Max: 100},
				Status:      StatusHigh,
				Severity:    health.StatusWarning,
				Explanation: `Your LDL ("bad") cholesterol is in the borderline high range (130–159 mg/dL). Optimal LDL is below 100 mg/dL. Reducing processed foods, saturated fats, and adding omega-3 fatty acids (salmon, flaxseeds, walnuts) can help bring this down within a few months.`,
				Causes: []string{
					"High consumption of processed and fried foods",
					"Low physical activity",
				},
				SuggestedIntakes: []string{
					"Plant sterols / stanols (found in fortified foods)",
					"Almonds and other unsalted nuts",
				},
			},
			{
				ID:          "tsh",
				Name:        "Thyroid (TSH)",
				Value:       2.8,
				Unit:        "mIU/L",
				NormalRange: health.Interval{Min: 0.4, Max: 4.0},
				Status:      StatusNormal,
				Severity:    health.StatusNormal,
				Explanation: "Your thyroid-stimulating hormone level is within the normal range, indicating proper thyroid function. No action needed.",
			},
		},
		Patterns: []PatternInsight{
			{
				ID:          "p1",
				Title:       "Mild Anemia Signal",
				Description: "Your low hemoglobin combined with normal WBC and platelets suggests a potential iron-deficiency pattern rather than a systemic issue. Consider an iron panel for further clarity.",
				Icon:        "🔬",
			},
			{
				ID:          "p2",
				Title:       "Cardiovascular Attention",
				Description: "Elevated total cholesterol and LDL alongside normal HDL suggests dietary-driven lipid changes. A balanced diet shift could normalize these values within 3–6 months.",
				Icon:        "❤️",
			},
			{
				ID:          "p3",
				Title:       "Metabolic Stability",
				Description: "Normal fasting glucose and TSH indicate a stable metabolic profile. Continue your current lifestyle habits to maintain these healthy levels.",
				Icon:        "✅",
			},
		},
	}
}
