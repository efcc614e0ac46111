package history

import (
	"context"
	"database/sql"
	"errors"
)

// NOTE: This repository assumes the following table exists:
// - roast_calls (immutable append-only)
//
// with a uniqueness constraint on call_id.

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO roast_calls (
  id, visitor_id, call_id, agent_id, amount_minor, currency, status,
  duration_seconds, ended_by_agent, recording_url, city, state, answered_by, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
ON CONFLICT (call_id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.VisitorID,
		rec.CallID,
		rec.AgentID,
		rec.AmountMinor,
		rec.Currency,
		rec.Status,
		rec.DurationSeconds,
		rec.EndedByAgent,
		rec.RecordingURL,
		rec.City,
		rec.State,
		rec.AnsweredBy,
		rec.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) UpdateRecording(ctx context.Context, callID, recordingURL string) error {
	const q = `
UPDATE roast_calls
SET recording_url = $2
WHERE call_id = $1 AND recording_url = ''
`
	_, err := r.db.ExecContext(ctx, q, callID, recordingURL)
	return err
}

func (r *PostgresRepository) ListByVisitor(ctx context.Context, visitorID string, limit int) ([]Record, error) {
	const q = `
SELECT id, visitor_id, call_id, agent_id, amount_minor, currency, status,
       duration_seconds, ended_by_agent, recording_url, city, state, answered_by, created_at
FROM roast_calls
WHERE visitor_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, visitorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.VisitorID,
			&rec.CallID,
			&rec.AgentID,
			&rec.AmountMinor,
			&rec.Currency,
			&rec.Status,
			&rec.DurationSeconds,
			&rec.EndedByAgent,
			&rec.RecordingURL,
			&rec.City,
			&rec.State,
			&rec.AnsweredBy,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByCallID(ctx context.Context, callID string) (Record, error) {
	const q = `
SELECT id, visitor_id, call_id, agent_id, amount_minor, currency, status,
       duration_seconds, ended_by_agent, recording_url, city, state, answered_by, created_at
FROM roast_calls
WHERE call_id = $1
LIMIT 1
`
	var rec Record
	if err := r.db.QueryRowContext(ctx, q, callID).Scan(
		&rec.ID,
		&rec.VisitorID,
		&rec.CallID,
		&rec.AgentID,
		&rec.AmountMinor,
		&rec.Currency,
		&rec.Status,
		&rec.DurationSeconds,
		&rec.EndedByAgent,
		&rec.RecordingURL,
		&rec.City,
		&rec.State,
		&rec.AnsweredBy,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}
