package health

// Metrics maps a metric key to its extracted value.
type Metrics map[string]float64

// Classify returns the status of value for the given metric. Each interval
// is tested on its own since a warning band may sit on either side of the
// normal band. Unknown keys are normal.
func Classify(key string, value float64) Status {
	b, ok := bands[key]
	if !ok {
		return StatusNormal
	}
	switch {
	case b.Normal.Contains(value):
		return StatusNormal
	case b.Warning.Contains(value):
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Direction reports which side of the normal interval value falls on.
// Unknown keys are Inside.
func Direction(key string, value float64) Side {
	b, ok := bands[key]
	if !ok {
		return Inside
	}
	switch {
	case value < b.Normal.Min:
		return Below
	case value > b.Normal.Max:
		return Above
	default:
		return Inside
	}
}

// Flagged reports whether a deviation on side s is a concern for key.
func (b Band) Flagged(s Side) bool {
	switch s {
	case Below:
		return b.FlagLow
	case Above:
		return b.FlagHigh
	default:
		return false
	}
}

// Known drops keys that have no band.
func (m Metrics) Known() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		if _, ok := bands[k]; ok {
			out[k] = v
		}
	}
	return out
}
