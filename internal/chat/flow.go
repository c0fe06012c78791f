package chat

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FlowKind string

const (
	FlowBooking FlowKind = "booking"
	FlowLab     FlowKind = "lab"
)

type Step string

const (
	StepDoctor      Step = "doctor"
	StepDate        Step = "date"
	StepTime        Step = "time"
	StepPatientName Step = "patientName"
	StepScanType    Step = "scanType"
)

var flowSteps = map[FlowKind][]Step{
	FlowBooking: {StepDoctor, StepDate, StepTime},
	FlowLab:     {StepPatientName, StepScanType, StepDate, StepTime},
}

var (
	errCardMismatch = errors.New("card does not belong to this flow")
	errFirstStep    = errors.New("already at the first step")
)

// Flow is a multi-step booking bound to the agent message that started it.
type Flow struct {
	Kind      FlowKind  `json:"kind"`
	Step      int       `json:"step"`
	MessageID uuid.UUID `json:"messageId"`
	// Dates offered when the flow started; they stay fixed for its lifetime.
	Dates []string `json:"dates"`

	Doctor      string `json:"doctor,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	PatientName string `json:"patientName,omitempty"`
	ScanType    string `json:"scanType,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

func newFlow(kind FlowKind, messageID uuid.UUID, now time.Time) *Flow {
	return &Flow{Kind: kind, MessageID: messageID, Dates: upcomingDates(now)}
}

func (f *Flow) Steps() []Step {
	return flowSteps[f.Kind]
}

func (f *Flow) Current() Step {
	return f.Steps()[f.Step]
}

// Option is one selectable value of the current step.
type Option struct {
	Value  string `json:"value"`
	Detail string `json:"detail,omitempty"`
}

// Options lists the valid values of the current step. Free-text steps have none.
func (f *Flow) Options() []Option {
	switch f.Current() {
	case StepDoctor:
		out := make([]Option, len(doctors))
		for i, d := range doctors {
			out[i] = Option{Value: d.Name, Detail: d.Specialty}
		}
		return out
	case StepScanType:
		out := make([]Option, len(scanTypes))
		for i, s := range scanTypes {
			out[i] = Option{Value: s.Name, Detail: s.Description}
		}
		return out
	case StepDate:
		return plainOptions(f.Dates)
	case StepTime:
		return plainOptions(timeSlots)
	}
	return nil
}

func plainOptions(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v}
	}
	return out
}

// Select records value for the current step and advances. It reports true
// once the last step is filled. An invalid value leaves the flow untouched.
func (f *Flow) Select(value string) (bool, error) {
	value = strings.TrimSpace(value)
	switch f.Current() {
	case StepDoctor:
		i := slices.IndexFunc(doctors, func(d Doctor) bool { return d.Name == value })
		if i < 0 {
			return false, fmt.Errorf("unknown doctor %q", value)
		}
		f.Doctor, f.Specialty = doctors[i].Name, doctors[i].Specialty
	case StepPatientName:
		if value == "" {
			return false, errors.New("patient name is required")
		}
		f.PatientName = value
	case StepScanType:
		if !slices.ContainsFunc(scanTypes, func(s ScanType) bool { return s.Name == value }) {
			return false, fmt.Errorf("unknown test type %q", value)
		}
		f.ScanType = value
	case StepDate:
		if !slices.Contains(f.Dates, value) {
			return false, fmt.Errorf("date %q is not offered", value)
		}
		f.Date = value
	case StepTime:
		if !slices.Contains(timeSlots, value) {
			return false, fmt.Errorf("time slot %q is not offered", value)
		}
		f.Time = value
	}

	if f.Step == len(f.Steps())-1 {
		return true, nil
	}
	f.Step++
	return false, nil
}

// Back returns to the previous step, keeping what was already chosen.
func (f *Flow) Back() error {
	if f.Step == 0 {
		return errFirstStep
	}
	f.Step--
	return nil
}

// FlowView is the client-facing snapshot of an active flow.
type FlowView struct {
	Kind      FlowKind          `json:"kind"`
	Step      Step              `json:"step"`
	Index     int               `json:"index"`
	Steps     []Step            `json:"steps"`
	Prompt    string            `json:"prompt"`
	Options   []Option          `json:"options"`
	Selection map[string]string `json:"selection"`
}

func (f *Flow) view(prompt string) *FlowView {
	sel := map[string]string{}
	for k, v := range map[string]string{
		"doctor": f.Doctor, "specialty": f.Specialty, "patientName": f.PatientName,
		"scanType": f.ScanType, "date": f.Date, "time": f.Time,
	} {
		if v != "" {
			sel[k] = v
		}
	}
	return &FlowView{
		Kind:      f.Kind,
		Step:      f.Current(),
		Index:     f.Step,
		Steps:     f.Steps(),
		Prompt:    prompt,
		Options:   f.Options(),
		Selection: sel,
	}
}
