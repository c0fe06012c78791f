package i18n

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		lang Language
		key  string
		want string
	}{
		{English, "normal", "Normal"},
		{Hindi, "normal", "सामान्य"},
		{Telugu, "critical", "క్రిటికల్"},
		{Hindi, "tsh", "TSH"}, // missing in hi
		{Telugu, "report.footer", "Generated by Lab Report AI. This summary is not a diagnosis; please consult a doctor."},
		{Language("fr"), "normal", "Normal"},
		{English, "no.such.key", "no.such.key"},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang)+"/"+tt.key, func(t *testing.T) {
			if got := Lookup(tt.lang, tt.key); got != tt.want {
				t.Errorf("Lookup(%s, %s) = %q, want %q", tt.lang, tt.key, got, tt.want)
			}
		})
	}
}

func TestEveryLanguageHasWelcome(t *testing.T) {
	for _, l := range Languages() {
		w := tables[l]["chat.welcome"]
		if w == "" {
			t.Errorf("%s: missing chat.welcome", l)
		}
		if !strings.Contains(w, "Lena") {
			t.Errorf("%s: welcome does not introduce Lena", l)
		}
	}
}

func TestFormat(t *testing.T) {
	got := Format(English, "chat.bookingConfirmed", map[string]string{"doctor": "Dr. Anita Reddy"})
	if got != "Appointment confirmed with Dr. Anita Reddy!" {
		t.Errorf("Format = %q", got)
	}
}

func TestParse(t *testing.T) {
	for _, code := range []string{"en", "HI", " te "} {
		if _, err := Parse(code); err != nil {
			t.Errorf("Parse(%q): %v", code, err)
		}
	}
	if _, err := Parse("fr"); err == nil {
		t.Error("Parse(fr) should fail")
	}
	if Telugu.SpeechCode() != "te-IN" || Hindi.SpeechCode() != "hi-IN" || English.SpeechCode() != "en-US" {
		t.Error("unexpected speech codes")
	}
}

func TestTableFillsGaps(t *testing.T) {
	tab := Table(Hindi)
	if tab["normal"] != "सामान्य" {
		t.Errorf("hi normal = %q", tab["normal"])
	}
	if tab["notify.booking"] == "" {
		t.Error("english-only key missing from resolved hi table")
	}
}
