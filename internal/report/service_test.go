package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/labreport"
	"lab-report-ai/internal/platform/apperr"
)

type fakeTelegram struct {
	docs     []string
	messages []string
	docErr   error
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTelegram) SendDocument(chatID int64, data []byte, fileName string) error {
	if f.docErr != nil {
		return f.docErr
	}
	f.docs = append(f.docs, fileName)
	return nil
}

// fontOrSkip returns the first system DejaVu font, skipping when none is
// installed.
func fontOrSkip(t *testing.T) string {
	t.Helper()
	for _, p := range defaultFontPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("no DejaVu font installed")
	return ""
}

func TestLayout(t *testing.T) {
	r := labreport.DemoReport()

	var en []string
	for _, b := range layout(r, i18n.English) {
		en = append(en, b.text)
	}
	text := strings.Join(en, "\n")
	for _, want := range []string{"Lab Report Summary", "Patient: Demo Patient", "Health Score: 82/100", "Risk Level: Low Risk", "Hemoglobin (Hb): 11.8 g/dL (Low)", "Normal range: 12-15.5 g/dL"} {
		if !strings.Contains(text, want) {
			t.Errorf("English layout missing %q", want)
		}
	}

	hi := layout(r, i18n.Hindi)
	if hi[0].text != i18n.Lookup(i18n.Hindi, "report.title") || !strings.Contains(hi[4].text, "कम जोखिम") {
		t.Errorf("Hindi header = %q / %q", hi[0].text, hi[4].text)
	}
}

func TestRenderPDFWithoutFont(t *testing.T) {
	s := NewService(nil, 0, "", zerolog.Nop())
	s.fontPaths = []string{"/nonexistent/font.ttf"}

	if _, err := s.RenderPDF(labreport.DemoReport(), i18n.English); !errors.Is(err, ErrNoFont) {
		t.Fatalf("err = %v, want ErrNoFont", err)
	}
}

func TestRenderPDF(t *testing.T) {
	font := fontOrSkip(t)
	s := NewService(nil, 0, font, zerolog.Nop())

	data, err := s.RenderPDF(labreport.DemoReport(), i18n.English)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:8])
	}
}

func TestShare(t *testing.T) {
	if s := NewService(nil, 0, "", zerolog.Nop()); apperr.As(s.Share(context.Background(), "r1", labreport.DemoReport(), i18n.English)).Code != "UNAVAILABLE" {
		t.Error("sharing without telegram should be unavailable")
	}

	font := fontOrSkip(t)
	tg := &fakeTelegram{}
	s := NewService(tg, 42, font, zerolog.Nop())
	if err := s.Share(context.Background(), "r1", labreport.DemoReport(), i18n.English); err != nil {
		t.Fatal(err)
	}
	if len(tg.docs) != 1 || tg.docs[0] != "lab_report_r1.pdf" {
		t.Errorf("docs = %v", tg.docs)
	}
	if len(tg.messages) != 1 || !strings.Contains(tg.messages[0], "health score 82") {
		t.Errorf("messages = %v", tg.messages)
	}

	tg.docErr = errors.New("blocked")
	if err := s.Share(context.Background(), "r2", labreport.DemoReport(), i18n.English); apperr.As(err).Code != "UNAVAILABLE" {
		t.Errorf("err = %v", err)
	}
}
