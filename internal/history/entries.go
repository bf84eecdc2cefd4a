package history

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fragmede/passage/internal/session"
)

// Source says which path produced a user change.
type Source string

const (
	SourceFetch Source = "fetch"
	SourceEvent Source = "event"
	SourceStore Source = "store"
)

// Entry is one observed change of the current user. UserID is empty when the
// user became absent.
type Entry struct {
	ID     string
	Source Source
	Event  session.Event
	UserID string
	Email  string
	At     time.Time
}

// Record appends an entry. Missing ID and At are filled in.
func (d *DB) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO session_history
		(id, source, event, user_id, email, at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Source), nullStr(string(e.Event)), nullStr(e.UserID), nullStr(e.Email), e.At.UnixMilli())
	return err
}

// Recent returns up to limit entries, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, source, event, user_id, email, at_unix_ms
		FROM session_history ORDER BY at_unix_ms DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var source string
		var event, userID, email sql.NullString
		var at int64
		if err := rows.Scan(&e.ID, &source, &event, &userID, &email, &at); err != nil {
			return nil, err
		}
		e.Source = Source(source)
		e.Event = session.Event(event.String)
		e.UserID = userID.String
		e.Email = email.String
		e.At = time.UnixMilli(at)
		result = append(result, e)
	}
	return result, rows.Err()
}

// Recorder returns a store observer that appends every write. Failures are
// logged; they must not break the store.
func Recorder(d *DB) func(*session.User) {
	return func(u *session.User) {
		e := Entry{Source: SourceStore}
		if u != nil {
			e.UserID = u.ID
			e.Email = u.Email
		}
		if err := d.Record(context.Background(), e); err != nil {
			log.Printf("history: recording user change: %v", err)
		}
	}
}

// EventRecorder returns a provider listener that appends every
// session-change event. INITIAL_SESSION replays existing state and is skipped.
func EventRecorder(d *DB) func(session.Event, *session.Session) {
	return func(ev session.Event, s *session.Session) {
		if ev == session.EventInitialSession {
			return
		}
		e := Entry{Source: SourceEvent, Event: ev}
		if s != nil && s.User != nil {
			e.UserID = s.User.ID
			e.Email = s.User.Email
		}
		if err := d.Record(context.Background(), e); err != nil {
			log.Printf("history: recording %s: %v", ev, err)
		}
	}
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
