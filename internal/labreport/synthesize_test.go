package labreport

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"lab-report-ai/internal/health"
)

func TestSynthesizeEmptyReturnsDemo(t *testing.T) {
	first, err := json.Marshal(Synthesize(nil, Meta{}))
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []health.Metrics{{}, {"vitaminD": 30}} {
		got, _ := json.Marshal(Synthesize(m, Meta{PatientName: "Someone", Date: "2030-01-01"}))
		if string(got) != string(first) {
			t.Fatalf("demo report not stable for %v", m)
		}
	}

	r := DemoReport()
	if r.PatientName != "Demo Patient" || r.HealthScore != 82 || r.RiskLevel != RiskLow || len(r.Tests) != 8 {
		t.Errorf("unexpected demo header: %+v", r)
	}
}

func TestDemoReportIsACopy(t *testing.T) {
	a := DemoReport()
	a.Tests[0].Causes[0] = "changed"
	a.Patterns = nil
	b := DemoReport()
	if b.Tests[0].Causes[0] != "Inadequate dietary iron intake" || len(b.Patterns) != 3 {
		t.Error("mutating one demo report leaked into the next")
	}
}

func TestSynthesizeHemoglobinOnly(t *testing.T) {
	r := Synthesize(health.Metrics{health.Hemoglobin: 11.8}, Meta{Date: "2026-03-01"})

	if len(r.Tests) != 1 {
		t.Fatalf("tests = %d, want 1", len(r.Tests))
	}
	if r.Tests[0].Status != StatusLow {
		t.Errorf("status = %s, want low", r.Tests[0].Status)
	}
	if !strings.Contains(r.OverallInsight, "Hemoglobin") {
		t.Errorf("insight does not mention hemoglobin: %q", r.OverallInsight)
	}
	for _, p := range r.Patterns {
		if p.ID == "iron-deficiency" {
			t.Error("iron-deficiency pattern needs wbc and platelets present")
		}
	}
	if r.PatientName != "Patient" || r.Date != "2026-03-01" {
		t.Errorf("meta = %q %q", r.PatientName, r.Date)
	}
	if r.HealthScore != 94 || r.RiskLevel != RiskLow {
		t.Errorf("score/risk = %d/%s", r.HealthScore, r.RiskLevel)
	}
}

func TestSynthesizeIronDeficiencyPattern(t *testing.T) {
	r := Synthesize(health.Metrics{
		health.Hemoglobin:    11.8,
		health.WBC:           7000,
		health.PlateletCount: 250000,
	}, Meta{})
	if !hasPattern(r, "iron-deficiency") {
		t.Errorf("patterns = %+v", r.Patterns)
	}

	r = Synthesize(health.Metrics{
		health.Hemoglobin:    11.8,
		health.WBC:           13000,
		health.PlateletCount: 250000,
	}, Meta{})
	if hasPattern(r, "iron-deficiency") {
		t.Error("iron-deficiency should not fire with high WBC")
	}
}

func TestSynthesizeDemoMetricsMatchesDemo(t *testing.T) {
	r := Synthesize(DemoMetrics(), Meta{})
	demo := DemoReport()

	if r.HealthScore != demo.HealthScore {
		t.Errorf("score = %d, want %d", r.HealthScore, demo.HealthScore)
	}
	if r.RiskLevel != demo.RiskLevel {
		t.Errorf("risk = %s, want %s", r.RiskLevel, demo.RiskLevel)
	}
	var titles []string
	for _, p := range r.Patterns {
		titles = append(titles, p.Title)
	}
	want := []string{"Mild Anemia Signal", "Cardiovascular Attention", "Metabolic Stability"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("patterns = %v, want %v", titles, want)
	}
}

func TestSynthesizeIsPure(t *testing.T) {
	m := health.Metrics{
		health.FastingGlucose: 130,
		health.SystolicBP:     150,
		health.HDL:            30,
		health.LDL:            170,
		"unknown":             1,
	}
	a := Synthesize(m, Meta{Date: "2026-01-01"})
	b := Synthesize(m, Meta{Date: "2026-01-01"})
	if !reflect.DeepEqual(a, b) {
		t.Error("two calls with the same input differ")
	}
	if len(a.Tests) != 4 {
		t.Errorf("unknown key should be ignored, got %d tests", len(a.Tests))
	}
}

func TestTestStatusDirection(t *testing.T) {
	tests := []struct {
		key      string
		value    float64
		status   TestStatus
		severity health.Status
	}{
		{health.HDL, 37, StatusLow, health.StatusWarning},
		{health.HDL, 250, StatusNormal, health.StatusNormal},
		{health.TotalCholesterol, 215, StatusHigh, health.StatusWarning},
		{health.TotalCholesterol, 260, StatusHigh, health.StatusCritical},
		{health.TotalCholesterol, -1, StatusNormal, health.StatusNormal},
		{health.LDL, 138, StatusHigh, health.StatusWarning},
		{health.HeartRate, 55, StatusLow, health.StatusWarning},
		{health.HeartRate, 120, StatusHigh, health.StatusCritical},
		{health.FastingGlucose, 95, StatusNormal, health.StatusNormal},
	}
	for _, tt := range tests {
		status, sev := testStatus(tt.key, tt.value)
		if status != tt.status || sev != tt.severity {
			t.Errorf("%s=%v: got %s/%s, want %s/%s", tt.key, tt.value, status, sev, tt.status, tt.severity)
		}
	}
}

func TestHealthScoreAndRisk(t *testing.T) {
	tests := []struct {
		name  string
		m     health.Metrics
		score int
		risk  RiskLevel
	}{
		{"all normal", health.Metrics{health.Hemoglobin: 14, health.LDL: 80}, 100, RiskLow},
		{"one critical", health.Metrics{health.FastingGlucose: 200}, 94, RiskModerate},
		{"two critical", health.Metrics{health.FastingGlucose: 200, health.SystolicBP: 170}, 88, RiskHigh},
		{"three warnings", health.Metrics{
			health.FastingGlucose: 110, health.SystolicBP: 130, health.LDL: 120,
		}, 82, RiskLow},
		{"four warnings", health.Metrics{
			health.FastingGlucose: 110, health.SystolicBP: 130,
			health.DiastolicBP: 85, health.LDL: 120,
		}, 76, RiskModerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Synthesize(tt.m, Meta{})
			if r.HealthScore != tt.score || r.RiskLevel != tt.risk {
				t.Errorf("got %d/%s, want %d/%s", r.HealthScore, r.RiskLevel, tt.score, tt.risk)
			}
		})
	}
}

func TestHealthScoreFloor(t *testing.T) {
	tests := make([]TestResult, 20)
	for i := range tests {
		tests[i].Status = StatusHigh
	}
	if got := healthScore(tests); got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
}

func TestExplanationTemplate(t *testing.T) {
	r := Synthesize(health.Metrics{health.LDL: 138}, Meta{})
	got := r.Tests[0]
	if !strings.Contains(got.Explanation, "138 mg/dL") || strings.Contains(got.Explanation, "{") {
		t.Errorf("explanation = %q", got.Explanation)
	}
	if len(got.Causes) == 0 || len(got.SuggestedIntakes) == 0 {
		t.Error("high LDL should carry causes and intakes")
	}
}

func TestCatalogCoversEveryMetric(t *testing.T) {
	if _, err := parseCatalog(catalogYAML); err != nil {
		t.Fatal(err)
	}
	if _, err := parseCatalog([]byte("hemoglobin: {name: Hb}")); err == nil {
		t.Error("incomplete catalog should be rejected")
	}
}

func hasPattern(r LabReport, id string) bool {
	for _, p := range r.Patterns {
		if p.ID == id {
			return true
		}
	}
	return false
}
