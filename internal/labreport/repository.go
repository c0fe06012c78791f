package labreport

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"lab-report-ai/internal/platform/apperr"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Save(ctx context.Context, r *Record) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := `SELECT id, owner, source, file_name, metrics, report, created_at FROM lab_reports WHERE id = $1`

	var rec Record
	var metricsJSON, reportJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Owner,
		&rec.Source,
		&rec.FileName,
		&metricsJSON,
		&reportJSON,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("report", id.String())
		}
		return nil, err
	}

	if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal(reportJSON, &rec.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rec, nil
}

func (r *postgresRepo) Save(ctx context.Context, rec *Record) error {
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return err
	}
	reportJSON, err := json.Marshal(rec.Report)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO lab_reports (id, owner, source, file_name, metrics, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			metrics = $5,
			report = $6
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Owner, rec.Source, rec.FileName, metricsJSON, reportJSON, rec.CreatedAt)
	return err
}

// memoryRepo backs the service when no database is configured.
type memoryRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]byte
}

func NewMemoryRepository() Repository {
	return &memoryRepo{records: map[uuid.UUID][]byte{}}
}

// Records are stored encoded so callers never share slices with the store.
func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	r.mu.RLock()
	raw, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("report", id.String())
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *memoryRepo) Save(_ context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.records[rec.ID] = raw
	r.mu.Unlock()
	return nil
}
