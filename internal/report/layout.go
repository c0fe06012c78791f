package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/signintech/gopdf"

	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/labreport"
)

// block is one paragraph of the PDF. Text longer than the page width is
// wrapped when written.
type block struct {
	size  float64
	text  string
	after float64
}

func layout(r labreport.LabReport, lang i18n.Language) []block {
	l := func(key string) string { return i18n.Lookup(lang, key) }

	out := []block{
		{20, l("report.title"), 30},
		{12, fmt.Sprintf("%s: %s", l("report.patient"), r.PatientName), 16},
		{12, fmt.Sprintf("%s: %s", l("report.date"), r.Date), 16},
		{12, fmt.Sprintf("%s: %d/100", l("report.healthScore"), r.HealthScore), 16},
		{12, fmt.Sprintf("%s: %s", l("report.riskLevel"), riskLabel(r.RiskLevel, lang)), 24},
		{14, l("report.overview"), 18},
		{11, r.OverallInsight, 24},
		{14, l("report.tests"), 18},
	}

	for _, t := range r.Tests {
		out = append(out,
			block{12, fmt.Sprintf("%s: %s %s (%s)", testName(t, lang), formatValue(t.Value), t.Unit, l(string(t.Status))), 14},
			block{10, fmt.Sprintf("%s: %s-%s %s", l("report.normalRange"), formatValue(t.NormalRange.Min), formatValue(t.NormalRange.Max), t.Unit), 13},
			block{10, t.Explanation, 13},
		)
		if len(t.Causes) > 0 {
			out = append(out, block{10, fmt.Sprintf("%s: %s", l("report.causes"), strings.Join(t.Causes, "; ")), 13})
		}
		if len(t.SuggestedIntakes) > 0 {
			out = append(out, block{10, fmt.Sprintf("%s: %s", l("report.intakes"), strings.Join(t.SuggestedIntakes, "; ")), 13})
		}
		out[len(out)-1].after += 8
	}

	if len(r.Patterns) > 0 {
		out = append(out, block{14, l("report.patterns"), 18})
		for _, p := range r.Patterns {
			out = append(out,
				block{12, p.Title, 14},
				block{10, p.Description, 20},
			)
		}
	}
	return out
}

func writeBlock(pdf *gopdf.GoPdf, b block) error {
	if err := pdf.SetFont(fontName, "", b.size); err != nil {
		return err
	}
	lines, err := pdf.SplitText(b.text, textWidth)
	if err != nil {
		// SplitText fails on empty text
		lines = []string{b.text}
	}
	for _, line := range lines {
		if pdf.GetY() > pageBottom {
			pdf.AddPage()
			pdf.SetY(40)
		}
		pdf.SetX(marginLeft)
		if err := pdf.Cell(nil, line); err != nil {
			return err
		}
		pdf.Br(b.size + 3)
	}
	if extra := b.after - (b.size + 3); extra > 0 {
		pdf.Br(extra)
	}
	return nil
}

// testName keeps the descriptive English catalog name and uses the short
// translated label elsewhere when one exists.
func testName(t labreport.TestResult, lang i18n.Language) string {
	if lang == i18n.English {
		return t.Name
	}
	if s := i18n.Lookup(lang, t.ID); s != t.ID {
		return s
	}
	return t.Name
}

func riskLabel(r labreport.RiskLevel, lang i18n.Language) string {
	return i18n.Lookup(lang, strings.ToLower(string(r))+"_risk")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
