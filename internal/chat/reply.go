package chat

import "strings"

// Directive is the UI action a model reply asks for.
type Directive string

const (
	DirectiveNone      Directive = "none"
	DirectiveBooking   Directive = "booking"
	DirectiveLab       Directive = "lab_booking"
	DirectiveHospitals Directive = "hospitals"
)

const (
	tokenBooking   = "SHOW_BOOKING_CARD"
	tokenLab       = "SHOW_LAB_BOOKING_CARD"
	tokenHospitals = "SHOW_HOSPITAL_CARD"
)

// ParseReply finds the control token in a raw reply and returns the text
// left once every token is removed. Booking wins over lab, lab over
// hospitals, when a reply carries more than one.
func ParseReply(raw string) (Directive, string) {
	d := DirectiveNone
	switch {
	case strings.Contains(raw, tokenBooking):
		d = DirectiveBooking
	case strings.Contains(raw, tokenLab):
		d = DirectiveLab
	case strings.Contains(raw, tokenHospitals):
		d = DirectiveHospitals
	}
	if d == DirectiveNone {
		return d, raw
	}
	text := raw
	for _, tok := range []string{tokenLab, tokenBooking, tokenHospitals} {
		text = strings.ReplaceAll(text, tok, "")
	}
	return d, strings.TrimSpace(text)
}
