package labreport

import (
	"strings"

	"lab-report-ai/internal/health"
)

const (
	maxScore         = 100
	deviationPenalty = 6

	// riskLevel thresholds. Three warnings stay Low, as in the demo report.
	highRiskCritical     = 2
	moderateRiskCritical = 1
	moderateRiskWarnings = 4

	defaultPatientName = "Patient"
)

// Meta carries report fields that do not come from the metrics.
type Meta struct {
	PatientName string
	Date        string // YYYY-MM-DD
}

// Synthesize builds a report from extracted metrics. Unknown keys are
// ignored; if nothing known is left the demonstration report is returned.
// The result depends only on its arguments.
func Synthesize(metrics health.Metrics, meta Meta) LabReport {
	known := metrics.Known()
	if len(known) == 0 {
		return DemoReport()
	}

	tests := make([]TestResult, 0, len(known))
	for _, key := range health.Keys {
		v, ok := known[key]
		if !ok {
			continue
		}
		tests = append(tests, buildTest(key, v))
	}

	name := strings.TrimSpace(meta.PatientName)
	if name == "" {
		name = defaultPatientName
	}
	risk := riskLevel(tests)
	return LabReport{
		PatientName:    name,
		Date:           meta.Date,
		OverallInsight: overallInsight(tests, risk),
		HealthScore:    healthScore(tests),
		RiskLevel:      risk,
		Tests:          tests,
		Patterns:       detectPatterns(tests),
	}
}

func buildTest(key string, value float64) TestResult {
	b, _ := health.Lookup(key)
	status, severity := testStatus(key, value)
	e := catalog[key]
	text, causes, intakes := e.explain(status, value, b.Normal)
	return TestResult{
		ID:               key,
		Name:             e.Name,
		Value:            value,
		Unit:             e.Unit,
		NormalRange:      b.Normal,
		Status:           status,
		Severity:         severity,
		Explanation:      text,
		Causes:           causes,
		SuggestedIntakes: intakes,
	}
}

// testStatus collapses the classifier result onto low/high using the side of
// the normal interval. A deviation on a side the band does not flag is
// reported as normal with normal severity.
func testStatus(key string, value float64) (TestStatus, health.Status) {
	sev := health.Classify(key, value)
	if sev == health.StatusNormal {
		return StatusNormal, sev
	}
	b, _ := health.Lookup(key)
	side := health.Direction(key, value)
	if !b.Flagged(side) {
		return StatusNormal, health.StatusNormal
	}
	if side == health.Below {
		return StatusLow, sev
	}
	return StatusHigh, sev
}

func healthScore(tests []TestResult) int {
	score := maxScore
	for _, t := range tests {
		if t.Status != StatusNormal {
			score -= deviationPenalty
		}
	}
	return max(score, 0)
}

func riskLevel(tests []TestResult) RiskLevel {
	var warnings, criticals int
	for _, t := range tests {
		if t.Status == StatusNormal {
			continue
		}
		switch t.Severity {
		case health.StatusCritical:
			criticals++
		case health.StatusWarning:
			warnings++
		}
	}
	switch {
	case criticals >= highRiskCritical:
		return RiskHigh
	case criticals >= moderateRiskCritical, warnings >= moderateRiskWarnings:
		return RiskModerate
	default:
		return RiskLow
	}
}

func overallInsight(tests []TestResult, risk RiskLevel) string {
	var findings []string
	for _, t := range tests {
		switch t.Status {
		case StatusLow:
			findings = append(findings, "your "+t.Name+" is below the normal range")
		case StatusHigh:
			findings = append(findings, "your "+t.Name+" is above the normal range")
		}
	}
	if len(findings) == 0 {
		return "All of your results are within healthy ranges. Keep up your current habits and recheck as your doctor advises."
	}

	var b strings.Builder
	if len(findings)*2 > len(tests) {
		b.WriteString("Several of your results are outside healthy ranges. ")
	} else {
		b.WriteString("Your results are mostly within healthy ranges. ")
	}
	b.WriteString("Markers worth attention: ")
	b.WriteString(joinFindings(findings))
	b.WriteString(". ")

	switch risk {
	case RiskHigh:
		b.WriteString("Please consult a doctor soon to review these results.")
	case RiskModerate:
		b.WriteString("We recommend discussing these results with your doctor.")
	default:
		b.WriteString("Overall, your health profile looks stable.")
	}
	return b.String()
}

func joinFindings(f []string) string {
	switch len(f) {
	case 1:
		return f[0]
	case 2:
		return f[0] + " and " + f[1]
	default:
		return strings.Join(f[:len(f)-1], ", ") + " and " + f[len(f)-1]
	}
}
