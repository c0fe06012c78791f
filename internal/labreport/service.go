package labreport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lab-report-ai/internal/health"
	"lab-report-ai/internal/platform/apperr"
	"lab-report-ai/internal/platform/metrics"
)

// Extractor pulls metric values out of a PDF lab report.
type Extractor interface {
	ExtractMetrics(ctx context.Context, pdf []byte, fileName string) (health.Metrics, error)
}

type Service struct {
	repo      Repository
	extractor Extractor
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, extractor Extractor, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		extractor: extractor,
		logger:    logger.With().Str("component", "labreport").Logger(),
		now:       time.Now,
	}
}

// Analyze validates and extracts an uploaded PDF, then stores the
// synthesized report. Nothing is stored when any step fails.
func (s *Service) Analyze(ctx context.Context, owner, patientName, fileName string, data []byte) (*Record, error) {
	if err := ValidateUpload(fileName, data); err != nil {
		metrics.RecordExtractionFailure(apperr.As(err).Code)
		return nil, err
	}

	m, err := s.extractor.ExtractMetrics(ctx, data, fileName)
	if err != nil {
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) {
			appErr = apperr.ExtractionFailed(err)
		}
		metrics.RecordExtractionFailure(appErr.Code)
		s.logger.Warn().Err(err).Str("file", fileName).Msg("extraction failed")
		return nil, appErr
	}
	if len(m.Known()) == 0 {
		metrics.RecordExtractionFailure("UNRECOGNIZED_DOCUMENT")
		return nil, apperr.UnrecognizedDocument(fileName)
	}

	return s.store(ctx, owner, SourceUpload, fileName, patientName, m)
}

// FromMetrics synthesizes a report from an externally supplied metric map.
// An empty map yields the demonstration report.
func (s *Service) FromMetrics(ctx context.Context, owner, patientName string, m health.Metrics) (*Record, error) {
	source := SourceMetrics
	if len(m.Known()) == 0 {
		source = SourceDemo
	}
	return s.store(ctx, owner, source, "", patientName, m)
}

func (s *Service) Demo() LabReport {
	r := DemoReport()
	metrics.RecordReport(string(SourceDemo), string(r.RiskLevel))
	return r
}

func (s *Service) Get(ctx context.Context, owner string, id uuid.UUID) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Owner != owner {
		return nil, apperr.NotFound("report", id.String())
	}
	return rec, nil
}

func (s *Service) store(ctx context.Context, owner string, source Source, fileName, patientName string, m health.Metrics) (*Record, error) {
	now := s.now()
	rec := &Record{
		ID:        uuid.New(),
		Owner:     owner,
		Source:    source,
		FileName:  fileName,
		Metrics:   m.Known(),
		Report:    Synthesize(m, Meta{PatientName: patientName, Date: now.Format("2006-01-02")}),
		CreatedAt: now,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, apperr.Wrap(err, "failed to save report")
	}

	metrics.RecordReport(string(source), string(rec.Report.RiskLevel))
	s.logger.Info().
		Str("report_id", rec.ID.String()).
		Str("source", string(source)).
		Int("tests", len(rec.Report.Tests)).
		Int("score", rec.Report.HealthScore).
		Msg("report generated")
	return rec, nil
}
