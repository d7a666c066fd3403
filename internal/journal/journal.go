package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/reserva-bot/internal/db"
	"github.com/example/reserva-bot/internal/domain/reservation"
)

// Journal records what a chat session sent to the reservation webhook.
type Journal interface {
	RecordAvailability(ctx context.Context, sessionID string, args json.RawMessage, res reservation.AvailabilityResult) error
	RecordSubmission(ctx context.Context, sessionID string, sub reservation.Submission, response []byte) error
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) RecordAvailability(context.Context, string, json.RawMessage, reservation.AvailabilityResult) error {
	return nil
}

func (Nop) RecordSubmission(context.Context, string, reservation.Submission, []byte) error {
	return nil
}

type Submission struct {
	ID           int64
	SessionID    string
	CustomerName string
	Date         string
	Time         string
	Guests       string
	Response     string
	CreatedAt    time.Time
}

type Repo struct{ db db.Querier }

var _ Journal = (*Repo)(nil)

func NewRepo(d db.Querier) *Repo { return &Repo{db: d} }

func (r *Repo) RecordAvailability(ctx context.Context, sessionID string, args json.RawMessage, res reservation.AvailabilityResult) error {
	if !json.Valid(args) {
		args = json.RawMessage(`{}`)
	}
	err := r.db.Exec(ctx, `
INSERT INTO availability_checks(session_id,arguments,available,table_id,slot_id,raw_result,error)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sessionID, string(args), res.Available, res.TableID, res.SlotID, res.Raw, res.Error)
	if err != nil {
		return fmt.Errorf("journal: record availability: %w", err)
	}
	return nil
}

func (r *Repo) RecordSubmission(ctx context.Context, sessionID string, sub reservation.Submission, response []byte) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("journal: encode submission: %w", err)
	}
	e := sub.Message.Analysis.StructuredData.Extracted
	err = r.db.Exec(ctx, `
INSERT INTO submissions(session_id,customer_name,reservation_date,reservation_time,guests,payload,response)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sessionID, e.Name, e.Date, e.Time, e.Guests, string(payload), string(response))
	if err != nil {
		return fmt.Errorf("journal: record submission: %w", err)
	}
	return nil
}

// ListSubmissions returns the most recent submissions first.
func (r *Repo) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
SELECT id,session_id,customer_name,reservation_date,reservation_time,guests,response,created_at
FROM submissions
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.SessionID, &s.CustomerName, &s.Date, &s.Time, &s.Guests, &s.Response, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SessionSubmission returns the latest submission made by one chat session.
// db.IsNotFound reports a session that never submitted.
func (r *Repo) SessionSubmission(ctx context.Context, sessionID string) (Submission, error) {
	var s Submission
	err := r.db.QueryRow(ctx, `
SELECT id,session_id,customer_name,reservation_date,reservation_time,guests,response,created_at
FROM submissions
WHERE session_id=$1
ORDER BY created_at DESC
LIMIT 1`, sessionID).Scan(&s.ID, &s.SessionID, &s.CustomerName, &s.Date, &s.Time, &s.Guests, &s.Response, &s.CreatedAt)
	if err != nil {
		return Submission{}, db.WrapNotFound(err)
	}
	return s, nil
}
