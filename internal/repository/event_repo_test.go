package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, mock
}

func newSQLiteRepo(t *testing.T) *EventSQLite {
	t.Helper()
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewEventSQLite(conn)
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}

const insertEventSQL = `INSERT INTO ingest_events (id, occurred_at, type, source, message, meta) VALUES (?, ?, ?, ?, ?, ?)`

const selectEventsSQL = `SELECT id, occurred_at, type, source, message, meta FROM ingest_events`

var eventColumns = []string{"id", "occurred_at", "type", "source", "message", "meta"}

func TestAppend_RejectionStoresSourceAndKeys(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := NewEventSQLite(conn)

	isRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		tm, err := time.Parse(sqliteTimeLayout, s)
		return err == nil && time.Since(tm) < time.Minute
	})
	isUUID := sqlmockArgumentFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		return ok && len(s) == 36
	})

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(isUUID, isRecent, models.EventRecordsRejected, "stream", "Rejected 2 records",
			`{"count":2,"keys":["yesterday","2024-13-01"]}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.IngestEvent{
		Type:        " records_rejected ",
		Source:      "Stream",
		Description: "Rejected 2 records",
		Meta:        models.IngestMeta{Count: 2, Keys: []string{"yesterday", "2024-13-01"}},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_UnavailableInUTC(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := NewEventSQLite(conn)

	tokyo := time.FixedZone("JST", 9*3600)
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("ev-1", "2025-03-01 00:30:00", models.EventSourceUnavailable, "snapshot", "Source unavailable",
			`{"error":"fetch export: 503"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.IngestEvent{
		EventID:     "ev-1",
		OccurredAt:  time.Date(2025, 3, 1, 9, 30, 0, 0, tokyo),
		Type:        models.EventSourceUnavailable,
		Source:      "snapshot",
		Description: "Source unavailable",
		Meta:        models.IngestMeta{Error: "fetch export: 503"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_Errors(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := NewEventSQLite(conn)

	if err := repo.Append(ctx(t), models.IngestEvent{Source: "stream"}); !errors.Is(err, errEventTypeRequired) {
		t.Fatalf("expected errEventTypeRequired, got %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).WillReturnError(errors.New("disk I/O error"))
	err := repo.Append(ctx(t), models.IngestEvent{Type: models.EventLoaded, Source: "stream"})
	if err == nil || !strings.Contains(err.Error(), "insert LOADED event") {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestEventQuery_Where(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 14, 0, 0, 0, time.FixedZone("EET", 2*3600))

	cases := []struct {
		name     string
		q        EventQuery
		wantSQL  string
		wantArgs []any
	}{
		{"empty", EventQuery{}, "", nil},
		{"source_only", EventQuery{Source: "stream"}, " WHERE source = ?", []any{"stream"}},
		{
			"all",
			EventQuery{From: from, To: to, Type: models.EventRecordsRejected, Source: "snapshot"},
			" WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? AND source = ?",
			[]any{"2025-01-01 11:00:00", "2025-01-01 12:00:00", models.EventRecordsRejected, "snapshot"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotSQL, gotArgs := tc.q.where()
			if gotSQL != tc.wantSQL {
				t.Fatalf("sql=%q, want %q", gotSQL, tc.wantSQL)
			}
			if len(gotArgs) != len(tc.wantArgs) {
				t.Fatalf("args=%v, want %v", gotArgs, tc.wantArgs)
			}
			for i := range gotArgs {
				if gotArgs[i] != tc.wantArgs[i] {
					t.Fatalf("arg %d=%v, want %v", i, gotArgs[i], tc.wantArgs[i])
				}
			}
		})
	}
}

func TestList_DecodesMetaAndKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := NewEventSQLite(conn)

	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(eventColumns).
		AddRow("1", at, models.EventLoaded, "stream", "Loaded 3 readings", `{"readings":3}`).
		AddRow("2", at, models.EventRecordsRejected, "stream", "Rejected 1 records", `{"count":1,"keys":["n/a"]}`).
		AddRow("3", at.Add(time.Minute), models.EventSourceUnavailable, "stream", "Source unavailable", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + ` WHERE source = ? ORDER BY occurred_at ASC, rowid ASC`)).
		WithArgs("stream").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), EventQuery{Source: "stream"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 events, got %d", len(got))
	}
	if got[0].Meta.Readings != 3 {
		t.Fatalf("LOADED readings=%d, want 3", got[0].Meta.Readings)
	}
	if got[1].Meta.Count != 1 || len(got[1].Meta.Keys) != 1 || got[1].Meta.Keys[0] != "n/a" {
		t.Fatalf("unexpected rejection meta: %+v", got[1].Meta)
	}
	if got[2].Meta.Error != "" || got[2].Source != "stream" {
		t.Fatalf("unexpected unavailable event: %+v", got[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rows *sqlmock.Rows
		want string
	}{
		{"malformed_meta", sqlmock.NewRows(eventColumns).AddRow("x", time.Now(), models.EventLoaded, "stream", "m", "{broken"), "decode meta of event x"},
		{"bad_time_column", sqlmock.NewRows(eventColumns).AddRow("x", 123, models.EventLoaded, "stream", "m", nil), "scan event"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, mock := newMockDB(t)
			repo := NewEventSQLite(conn)
			mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL)).WillReturnRows(tc.rows)

			_, err := repo.List(ctx(t), EventQuery{})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestEventSQLite_RoundTripFiltersBySource(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	at := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

	for _, e := range []models.IngestEvent{
		{OccurredAt: at, Type: models.EventLoaded, Source: "snapshot", Description: "Loaded 10 readings", Meta: models.IngestMeta{Readings: 10}},
		{OccurredAt: at.Add(time.Hour), Type: models.EventLoaded, Source: "stream", Description: "Loaded 4 readings", Meta: models.IngestMeta{Readings: 4}},
		{OccurredAt: at.Add(time.Hour), Type: models.EventRecordsRejected, Source: "stream", Description: "Rejected 2 records", Meta: models.IngestMeta{Count: 2, Keys: []string{"bad", "worse"}}},
		{OccurredAt: at.Add(2 * time.Hour), Type: models.EventSourceUnavailable, Source: "stream", Description: "Source unavailable", Meta: models.IngestMeta{Error: "connection reset"}},
	} {
		if err := repo.Append(ctx(t), e); err != nil {
			t.Fatalf("Append %s: %v", e.Type, err)
		}
	}

	stream, err := repo.List(ctx(t), EventQuery{Source: "stream"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var types []string
	for _, e := range stream {
		types = append(types, e.Type)
	}
	want := []string{models.EventLoaded, models.EventRecordsRejected, models.EventSourceUnavailable}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("stream events=%v, want %v", types, want)
	}
	if !stream[1].OccurredAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("occurred_at=%v", stream[1].OccurredAt)
	}
	if rej := stream[1].Meta; rej.Count != 2 || strings.Join(rej.Keys, ",") != "bad,worse" {
		t.Fatalf("rejection meta=%+v", rej)
	}
	if stream[2].Meta.Error != "connection reset" {
		t.Fatalf("unavailable meta=%+v", stream[2].Meta)
	}

	rejected, err := repo.List(ctx(t), EventQuery{Type: models.EventRecordsRejected, Source: "snapshot"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("snapshot rejections=%+v, want none", rejected)
	}

	late, err := repo.List(ctx(t), EventQuery{From: at.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(late) != 1 || late[0].Type != models.EventSourceUnavailable {
		t.Fatalf("events after 09:30=%+v", late)
	}
}
