package labreport

import (
	"time"

	"github.com/google/uuid"

	"lab-report-ai/internal/health"
)

// TestStatus is the per-test vocabulary shown to users.
type TestStatus string

const (
	StatusNormal TestStatus = "normal"
	StatusLow    TestStatus = "low"
	StatusHigh   TestStatus = "high"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

type TestResult struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Value            float64         `json:"value"`
	Unit             string          `json:"unit"`
	NormalRange      health.Interval `json:"normalRange"`
	Status           TestStatus      `json:"status"`
	Severity         health.Status   `json:"severity"`
	Explanation      string          `json:"explanation"`
	Causes           []string        `json:"causes,omitempty"`
	SuggestedIntakes []string        `json:"suggestedIntakes,omitempty"`
}

type PatternInsight struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type LabReport struct {
	PatientName    string           `json:"patientName"`
	Date           string           `json:"date"`
	OverallInsight string           `json:"overallInsight"`
	HealthScore    int              `json:"healthScore"`
	RiskLevel      RiskLevel        `json:"riskLevel"`
	Tests          []TestResult     `json:"tests"`
	Patterns       []PatternInsight `json:"patterns"`
}

// Source tells how a stored report was produced.
type Source string

const (
	SourceUpload  Source = "upload"
	SourceMetrics Source = "metrics"
	SourceDemo    Source = "demo"
)

// Record is a persisted report together with the metrics it was built from.
type Record struct {
	ID        uuid.UUID      `json:"id"`
	Owner     string         `json:"owner"`
	Source    Source         `json:"source"`
	FileName  string         `json:"fileName,omitempty"`
	Metrics   health.Metrics `json:"metrics"`
	Report    LabReport      `json:"report"`
	CreatedAt time.Time      `json:"createdAt"`
}
