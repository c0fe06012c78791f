package chat

import (
	"strings"
	"testing"

	"lab-report-ai/internal/i18n"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		raw       string
		directive Directive
		text      string
	}{
		{"Just drink water.", DirectiveNone, "Just drink water."},
		{"SHOW_BOOKING_CARD", DirectiveBooking, ""},
		{"Sure thing! SHOW_LAB_BOOKING_CARD", DirectiveLab, "Sure thing!"},
		{"See a doctor soon. SHOW_HOSPITAL_CARD", DirectiveHospitals, "See a doctor soon."},
		{"SHOW_HOSPITAL_CARD SHOW_BOOKING_CARD", DirectiveBooking, ""},
		{"  SHOW_LAB_BOOKING_CARD and SHOW_HOSPITAL_CARD ", DirectiveLab, "and"},
	}
	for _, tt := range tests {
		d, text := ParseReply(tt.raw)
		if d != tt.directive || text != tt.text {
			t.Errorf("ParseReply(%q) = %s, %q; want %s, %q", tt.raw, d, text, tt.directive, tt.text)
		}
	}
}

func TestResponder(t *testing.T) {
	r := NewResponder()
	tests := []struct {
		text   string
		lang   i18n.Language
		prefix string
	}{
		{"book a doctor appointment", i18n.English, "SHOW_BOOKING_CARD"},
		{"I need an MRI next week", i18n.English, "SHOW_LAB_BOOKING_CARD"},
		{"can I get a blood test", i18n.English, "SHOW_LAB_BOOKING_CARD"},
		{"any hospitals near me?", i18n.English, "SHOW_HOSPITAL_CARD"},
		{"మీ దగ్గర ఆసుపత్రి", i18n.Telugu, "SHOW_HOSPITAL_CARD"},
		{"Hello!", i18n.English, "Hi there! 👋"},
		{"hi", i18n.Telugu, "హాయ్! 👋"},
		{"is my HB low", i18n.English, "Your hemoglobin is 11.8"},
		{"my LDL", i18n.Hindi, "आपका कोलेस्ट्रॉल"},
		{"diabetes risk?", i18n.English, "Your fasting glucose is 95"},
		{"what should I eat", i18n.English, "Based on your general profile"},
		{"that's great", i18n.English, "Great question!"},
		{"they said so", i18n.English, "Great question!"},
	}
	for _, tt := range tests {
		got := r.Reply(tt.text, tt.lang)
		if !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("Reply(%q, %s) = %q, want prefix %q", tt.text, tt.lang, got, tt.prefix)
		}
	}
}

func TestResponderTopicsEndWithHospitalToken(t *testing.T) {
	r := NewResponder()
	for _, q := range []string{"hemoglobin", "cholesterol", "sugar"} {
		for _, lang := range i18n.Languages() {
			if got := r.Reply(q, lang); !strings.HasSuffix(got, tokenHospitals) {
				t.Errorf("%s/%s does not offer hospitals: %q", q, lang, got)
			}
		}
	}
}

func TestParseResponderRejectsBadTables(t *testing.T) {
	bad := []string{
		"rules: [{pattern: '(', topic: greet}]\nfallback: greet\nreplies: {greet: {en: hi}}",
		"rules: [{pattern: 'x', topic: missing}]\nfallback: greet\nreplies: {greet: {en: hi}}",
		"rules: []\nfallback: nothing\nreplies: {}",
	}
	for _, raw := range bad {
		if _, err := parseResponder([]byte(raw)); err == nil {
			t.Errorf("accepted %q", raw)
		}
	}
}
