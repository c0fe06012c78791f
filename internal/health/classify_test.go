package health

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value float64
		want  Status
	}{
		{"glucose normal", FastingGlucose, 85, StatusNormal},
		{"glucose normal upper bound", FastingGlucose, 100, StatusNormal},
		{"glucose warning", FastingGlucose, 110, StatusWarning},
		{"glucose critical high", FastingGlucose, 150, StatusCritical},
		{"glucose critical low", FastingGlucose, 50, StatusCritical},
		{"hdl warning below normal", HDL, 37, StatusWarning},
		{"hdl critical", HDL, 20, StatusCritical},
		{"hdl above normal", HDL, 250, StatusCritical},
		{"heart rate warning below", HeartRate, 55, StatusWarning},
		{"hemoglobin warning", Hemoglobin, 11.8, StatusWarning},
		{"platelets normal", PlateletCount, 250000, StatusNormal},
		{"tsh warning", TSH, 6, StatusWarning},
		{"unknown key", "vitaminD", -5, StatusNormal},
		{"unknown key large", "ferritin", 1e9, StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.key, tt.value); got != tt.want {
				t.Errorf("Classify(%s, %v) = %s, want %s", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestClassifyAllBands(t *testing.T) {
	for _, key := range Keys {
		b, ok := Lookup(key)
		if !ok {
			t.Fatalf("no band for %s", key)
		}

		mid := (b.Normal.Min + b.Normal.Max) / 2
		if got := Classify(key, mid); got != StatusNormal {
			t.Errorf("%s: mid normal %v = %s", key, mid, got)
		}

		w := (b.Warning.Min + b.Warning.Max) / 2
		if !b.Normal.Contains(w) {
			if got := Classify(key, w); got != StatusWarning {
				t.Errorf("%s: mid warning %v = %s", key, w, got)
			}
		}

		lo := min(b.Normal.Min, b.Warning.Min) - 1
		hi := max(b.Normal.Max, b.Warning.Max) + 1
		if got := Classify(key, lo); got != StatusCritical {
			t.Errorf("%s: below both %v = %s", key, lo, got)
		}
		if got := Classify(key, hi); got != StatusCritical {
			t.Errorf("%s: above both %v = %s", key, hi, got)
		}
	}
}

func TestDirection(t *testing.T) {
	if got := Direction(Hemoglobin, 11.8); got != Below {
		t.Errorf("hemoglobin 11.8: got %v", got)
	}
	if got := Direction(LDL, 138); got != Above {
		t.Errorf("ldl 138: got %v", got)
	}
	if got := Direction("unknown", 1); got != Inside {
		t.Errorf("unknown: got %v", got)
	}

	b, _ := Lookup(TotalCholesterol)
	if b.Flagged(Below) {
		t.Error("cholesterol must not flag low values")
	}
	b, _ = Lookup(HDL)
	if b.Flagged(Above) || !b.Flagged(Below) {
		t.Error("hdl flags low only")
	}
}

func TestKnown(t *testing.T) {
	m := Metrics{Hemoglobin: 13, "glucoseRandom": 90}.Known()
	if len(m) != 1 || m[Hemoglobin] != 13 {
		t.Errorf("Known() = %v", m)
	}
}
