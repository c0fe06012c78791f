package labreport

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lab-report-ai/internal/health"
)

//go:embed data/catalog.yaml
var catalogYAML []byte

type deviation struct {
	Explanation string   `yaml:"explanation"`
	Causes      []string `yaml:"causes"`
	Intakes     []string `yaml:"intakes"`
}

type entry struct {
	Name   string     `yaml:"name"`
	Unit   string     `yaml:"unit"`
	Normal string     `yaml:"normal"`
	Low    *deviation `yaml:"low"`
	High   *deviation `yaml:"high"`
}

var catalog map[string]entry

func init() {
	c, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("labreport: %v", err))
	}
	catalog = c
}

// parseCatalog also checks that every flagged direction has text.
func parseCatalog(raw []byte) (map[string]entry, error) {
	c := map[string]entry{}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, key := range health.Keys {
		e, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("catalog: missing metric %s", key)
		}
		b, _ := health.Lookup(key)
		if b.FlagLow && e.Low == nil {
			return nil, fmt.Errorf("catalog: %s flags low values but has no low text", key)
		}
		if b.FlagHigh && e.High == nil {
			return nil, fmt.Errorf("catalog: %s flags high values but has no high text", key)
		}
	}
	return c, nil
}

func (e entry) explain(status TestStatus, value float64, r health.Interval) (string, []string, []string) {
	text, causes, intakes := e.Normal, []string(nil), []string(nil)
	var d *deviation
	switch status {
	case StatusLow:
		d = e.Low
	case StatusHigh:
		d = e.High
	}
	if d != nil {
		text = d.Explanation
		causes = append(causes, d.Causes...)
		intakes = append(intakes, d.Intakes...)
	}
	text = strings.NewReplacer(
		"{value}", formatNumber(value),
		"{unit}", e.Unit,
		"{min}", formatNumber(r.Min),
		"{max}", formatNumber(r.Max),
	).Replace(text)
	return text, causes, intakes
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
