package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"lab-report-ai/internal/platform/apperr"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	SaveAppointment(ctx context.Context, a *Appointment) error
	ListAppointments(ctx context.Context, owner string) ([]Appointment, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `
		SELECT id, owner, language, state, epoch, messages, history, flow, created_at, updated_at
		FROM chat_sessions WHERE id = $1`

	var s Session
	var messagesJSON, historyJSON, flowJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Owner,
		&s.Language,
		&s.State,
		&s.Epoch,
		&messagesJSON,
		&historyJSON,
		&flowJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("session", id.String())
		}
		return nil, err
	}

	if err := json.Unmarshal(messagesJSON, &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &s.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if len(flowJSON) > 0 {
		if err := json.Unmarshal(flowJSON, &s.Flow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flow: %w", err)
		}
	}
	return &s, nil
}

func (r *postgresRepo) Save(ctx context.Context, s *Session) error {
	messagesJSON, err := json.Marshal(s.Messages)
	if err != nil {
		return err
	}
	historyJSON, err := json.Marshal(s.History)
	if err != nil {
		return err
	}
	var flowJSON []byte
	if s.Flow != nil {
		if flowJSON, err = json.Marshal(s.Flow); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO chat_sessions (id, owner, language, state, epoch, messages, history, flow, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			language = $3,
			state = $4,
			epoch = $5,
			messages = $6,
			history = $7,
			flow = $8,
			updated_at = $10
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.Owner, s.Language, s.State, s.Epoch, messagesJSON, historyJSON, flowJSON, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *postgresRepo) SaveAppointment(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, session_id, owner, kind, doctor, specialty, patient_name, scan_type, date, time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.SessionID, a.Owner, a.Kind, a.Doctor, a.Specialty, a.PatientName, a.ScanType, a.Date, a.Time, a.CreatedAt)
	return err
}

func (r *postgresRepo) ListAppointments(ctx context.Context, owner string) ([]Appointment, error) {
	query := `
		SELECT id, session_id, owner, kind, doctor, specialty, patient_name, scan_type, date, time, created_at
		FROM appointments WHERE owner = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Owner, &a.Kind, &a.Doctor, &a.Specialty,
			&a.PatientName, &a.ScanType, &a.Date, &a.Time, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type memoryRepo struct {
	mu           sync.RWMutex
	sessions     map[uuid.UUID][]byte
	appointments []Appointment
}

// NewMemoryRepository keeps sessions in process; used when no database is configured.
func NewMemoryRepository() Repository {
	return &memoryRepo{sessions: map[uuid.UUID][]byte{}}
}

// sessionRecord carries the fields Session hides from JSON responses.
type sessionRecord struct {
	Session
	Owner   string `json:"owner"`
	History []Turn `json:"history"`
	Epoch   int    `json:"epoch"`
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	raw, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("session", id.String())
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	s := rec.Session
	s.Owner, s.History, s.Epoch = rec.Owner, rec.History, rec.Epoch
	return &s, nil
}

func (r *memoryRepo) Save(_ context.Context, s *Session) error {
	raw, err := json.Marshal(sessionRecord{Session: *s, Owner: s.Owner, History: s.History, Epoch: s.Epoch})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[s.ID] = raw
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) SaveAppointment(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	r.appointments = append(r.appointments, *a)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) ListAppointments(_ context.Context, owner string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Appointment{}
	for _, a := range r.appointments {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
