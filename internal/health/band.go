package health

// Status is the three-way classification of a metric value.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Side tells where a value lies relative to the normal interval.
type Side int

const (
	Inside Side = iota
	Below
	Above
)

type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains is inclusive on both ends.
func (i Interval) Contains(v float64) bool {
	return v >= i.Min && v <= i.Max
}

// Band is the reference data for one metric. FlagLow and FlagHigh say
// which sides of the normal interval are medically meaningful deviations.
type Band struct {
	Normal   Interval `json:"normal"`
	Warning  Interval `json:"warning"`
	FlagLow  bool     `json:"flagLow"`
	FlagHigh bool     `json:"flagHigh"`
}

// Metric keys as produced by extraction.
const (
	FastingGlucose   = "fastingGlucose"
	PostMealGlucose  = "postMealGlucose"
	SystolicBP       = "systolicBP"
	DiastolicBP      = "diastolicBP"
	TotalCholesterol = "totalCholesterol"
	HDL              = "hdl"
	LDL              = "ldl"
	HeartRate        = "heartRate"
	Hemoglobin       = "hemoglobin"
	WBC              = "wbc"
	RBC              = "rbc"
	PlateletCount    = "plateletCount"
	TSH              = "tsh"
)

var bands = map[string]Band{
	FastingGlucose:   {Normal: Interval{70, 100}, Warning: Interval{100, 126}, FlagLow: true, FlagHigh: true},
	PostMealGlucose:  {Normal: Interval{70, 140}, Warning: Interval{140, 200}, FlagLow: true, FlagHigh: true},
	SystolicBP:       {Normal: Interval{90, 120}, Warning: Interval{120, 140}, FlagLow: true, FlagHigh: true},
	DiastolicBP:      {Normal: Interval{60, 80}, Warning: Interval{80, 90}, FlagLow: true, FlagHigh: true},
	TotalCholesterol: {Normal: Interval{0, 200}, Warning: Interval{200, 240}, FlagHigh: true},
	HDL:              {Normal: Interval{40, 200}, Warning: Interval{35, 40}, FlagLow: true},
	LDL:              {Normal: Interval{0, 100}, Warning: Interval{100, 160}, FlagHigh: true},
	HeartRate:        {Normal: Interval{60, 100}, Warning: Interval{50, 60}, FlagLow: true, FlagHigh: true},
	Hemoglobin:       {Normal: Interval{12, 17}, Warning: Interval{10, 12}, FlagLow: true, FlagHigh: true},
	WBC:              {Normal: Interval{4000, 11000}, Warning: Interval{3000, 4000}, FlagLow: true, FlagHigh: true},
	RBC:              {Normal: Interval{4.2, 6.1}, Warning: Interval{3.5, 4.2}, FlagLow: true, FlagHigh: true},
	PlateletCount:    {Normal: Interval{150000, 400000}, Warning: Interval{100000, 150000}, FlagLow: true, FlagHigh: true},
	TSH:              {Normal: Interval{0.4, 4.0}, Warning: Interval{4.0, 10.0}, FlagLow: true, FlagHigh: true},
}

// Keys lists the known metrics in report order.
var Keys = []string{
	Hemoglobin, WBC, RBC, PlateletCount,
	FastingGlucose, PostMealGlucose,
	TotalCholesterol, HDL, LDL,
	SystolicBP, DiastolicBP, HeartRate,
	TSH,
}

func Lookup(key string) (Band, bool) {
	b, ok := bands[key]
	return b, ok
}
