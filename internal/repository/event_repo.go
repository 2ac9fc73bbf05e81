package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"air_quality_monitor/internal/models"

	"github.com/google/uuid"
)

// sqliteTimeLayout is the SQLite TIMESTAMP text format. Bounds are formatted the
// same way so comparisons stay lexicographic.
const sqliteTimeLayout = "2006-01-02 15:04:05"

var errEventTypeRequired = errors.New("event type is required")

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

// Append stores an ingestion event. A missing id or time is filled in; the
// meta counters are kept as a JSON document next to the indexed columns.
func (r *EventSQLite) Append(ctx context.Context, e models.IngestEvent) error {
	typ := strings.ToUpper(strings.TrimSpace(e.Type))
	if typ == "" {
		return errEventTypeRequired
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	at := e.OccurredAt.UTC()
	if e.OccurredAt.IsZero() {
		at = time.Now().UTC()
	}

	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("encode meta of %s event: %w", typ, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ingest_events (id, occurred_at, type, source, message, meta) VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventID, at.Format(sqliteTimeLayout), typ, strings.ToLower(strings.TrimSpace(e.Source)), e.Description, string(meta),
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", typ, err)
	}
	return nil
}

// where renders q as a SQL condition with positional args.
func (q EventQuery) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		conds = append(conds, cond)
		args = append(args, v)
	}
	if !q.From.IsZero() {
		add("occurred_at >= ?", q.From.UTC().Format(sqliteTimeLayout))
	}
	if !q.To.IsZero() {
		add("occurred_at <= ?", q.To.UTC().Format(sqliteTimeLayout))
	}
	if q.Type != "" {
		add("type = ?", q.Type)
	}
	if q.Source != "" {
		add("source = ?", q.Source)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns matching events oldest first. Events written in the same second
// (a load and its rejections) keep their insertion order.
func (r *EventSQLite) List(ctx context.Context, q EventQuery) ([]models.IngestEvent, error) {
	where, args := q.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, occurred_at, type, source, message, meta FROM ingest_events`+where+` ORDER BY occurred_at ASC, rowid ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.IngestEvent
	for rows.Next() {
		var (
			ev   models.IngestEvent
			meta sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Source, &ev.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &ev.Meta); err != nil {
				return nil, fmt.Errorf("decode meta of event %s: %w", ev.EventID, err)
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
