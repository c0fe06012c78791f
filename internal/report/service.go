package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"

	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/labreport"
	"lab-report-ai/internal/platform/apperr"
)

// ErrNoFont is returned when none of the candidate font files can be loaded.
var ErrNoFont = errors.New("report: no usable TTF font")

// Common DejaVu locations on Alpine and Debian images.
var defaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

// Service renders lab reports as PDF and shares them with the clinic chat.
type Service struct {
	tgClient     TelegramClient
	clinicChatID int64
	fontPaths    []string
	logger       zerolog.Logger
}

// NewService prefers fontPath when set. A nil tg disables sharing.
func NewService(tg TelegramClient, clinicChatID int64, fontPath string, logger zerolog.Logger) *Service {
	paths := defaultFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, defaultFontPaths...)
	}
	return &Service{
		tgClient:     tg,
		clinicChatID: clinicChatID,
		fontPaths:    paths,
		logger:       logger.With().Str("component", "report").Logger(),
	}
}

const (
	fontName   = "Body"
	marginLeft = 40.0
	textWidth  = 515.0
	pageBottom = 790.0
	footerY    = 810.0
)

// RenderPDF lays the report out on A4 pages with labels in lang.
func (s *Service) RenderPDF(r labreport.LabReport, lang i18n.Language) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	if err := s.loadFont(&pdf); err != nil {
		return nil, err
	}
	pdf.AddPage()
	pdf.SetLeftMargin(marginLeft)
	pdf.SetX(marginLeft)
	pdf.SetY(40)

	for _, b := range layout(r, lang) {
		if err := writeBlock(&pdf, b); err != nil {
			return nil, err
		}
	}

	pdf.SetY(footerY)
	pdf.SetX(marginLeft)
	if err := pdf.SetFont(fontName, "", 8); err != nil {
		return nil, err
	}
	pdf.Cell(nil, i18n.Lookup(lang, "report.footer"))

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont(fontName, path); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	s.logger.Error().Err(lastErr).Strs("paths", s.fontPaths).Msg("no font could be loaded")
	return fmt.Errorf("%w (install ttf-dejavu or set PDF_FONT_PATH): %v", ErrNoFont, lastErr)
}

// Share sends the rendered PDF and a one-line summary to the clinic chat.
func (s *Service) Share(ctx context.Context, id string, r labreport.LabReport, lang i18n.Language) error {
	if s.tgClient == nil || s.clinicChatID == 0 {
		return apperr.Unavailable("report sharing is not configured")
	}
	data, err := s.RenderPDF(r, lang)
	if err != nil {
		return apperr.Wrap(err, "failed to render PDF")
	}

	fileName := fmt.Sprintf("lab_report_%s.pdf", id)
	if err := s.tgClient.SendDocument(s.clinicChatID, data, fileName); err != nil {
		s.logger.Error().Err(err).Str("report_id", id).Msg("failed to send report document")
		return apperr.Unavailable("failed to deliver report")
	}
	summary := i18n.Format(lang, "notify.report", map[string]string{
		"patient": r.PatientName,
		"date":    r.Date,
		"score":   strconv.Itoa(r.HealthScore),
		"risk":    riskLabel(r.RiskLevel, lang),
	})
	if err := s.tgClient.SendMessage(s.clinicChatID, summary); err != nil {
		// the document already arrived
		s.logger.Warn().Err(err).Str("report_id", id).Msg("failed to send report summary")
	}
	s.logger.Info().Str("report_id", id).Int64("chat_id", s.clinicChatID).Msg("report shared")
	return nil
}
