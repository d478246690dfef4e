package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/haeun-oh/rushgate/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS fcfs_events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER NOT NULL,
	capacity    INTEGER NOT NULL,
	prize_info  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_fcfs_events_start ON fcfs_events(start_time);

CREATE TABLE IF NOT EXISTS event_users (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   TEXT NOT NULL UNIQUE,
	user_name TEXT NOT NULL,
	phone     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS fcfs_winning_records (
	event_seq    INTEGER NOT NULL REFERENCES fcfs_events(seq),
	user_seq     INTEGER NOT NULL REFERENCES event_users(seq),
	winning_time INTEGER NOT NULL,
	PRIMARY KEY (event_seq, user_seq)
);
`

// SQLiteStore implements the repository contracts on a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (and if needed initializes) the durable store at path.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrStorage)
	}
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", ErrStorage, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %v", ErrStorage, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrStorage, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the sqlite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateEvent inserts a new event definition and returns it with its assigned
// sequence number and a freshly minted external id (if none was provided).
func (s *SQLiteStore) CreateEvent(ctx context.Context, def model.EventDefinition) (model.EventDefinition, error) {
	if def.ExternalID == "" {
		def.ExternalID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fcfs_events (external_id, name, start_time, end_time, capacity, prize_info)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		def.ExternalID, def.Name, toMillis(def.StartTime), toMillis(def.EndTime), def.Capacity, def.PrizeInfo,
	)
	if err != nil {
		return model.EventDefinition{}, fmt.Errorf("%w: insert event: %v", ErrStorage, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return model.EventDefinition{}, fmt.Errorf("%w: last insert id: %v", ErrStorage, err)
	}
	def.Seq = seq
	return def, nil
}

// CreateUser inserts a participant identity and returns it with its sequence.
func (s *SQLiteStore) CreateUser(ctx context.Context, user model.ParticipantIdentity) (model.ParticipantIdentity, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO event_users (user_id, user_name, phone) VALUES (?, ?, ?)`,
		user.UserID, user.UserName, user.Phone,
	)
	if err != nil {
		return model.ParticipantIdentity{}, fmt.Errorf("%w: insert user: %v", ErrStorage, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return model.ParticipantIdentity{}, fmt.Errorf("%w: last insert id: %v", ErrStorage, err)
	}
	user.Seq = seq
	return user, nil
}

// FindUpcoming returns every event whose start time falls in [from, to).
func (s *SQLiteStore) FindUpcoming(ctx context.Context, from, to time.Time) ([]model.EventDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, external_id, name, start_time, end_time, capacity, prize_info
		 FROM fcfs_events WHERE start_time >= ? AND start_time < ? ORDER BY start_time`,
		toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query upcoming events: %v", ErrStorage, err)
	}
	defer rows.Close()

	var defs []model.EventDefinition
	for rows.Next() {
		var def model.EventDefinition
		var start, end int64
		if err := rows.Scan(&def.Seq, &def.ExternalID, &def.Name, &start, &end, &def.Capacity, &def.PrizeInfo); err != nil {
			return nil, fmt.Errorf("%w: scan event: %v", ErrStorage, err)
		}
		def.StartTime = fromMillis(start)
		def.EndTime = fromMillis(end)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %v", ErrStorage, err)
	}
	return defs, nil
}

// FindBySeq returns the event with the given internal sequence number.
func (s *SQLiteStore) FindBySeq(ctx context.Context, seq int64) (model.EventDefinition, error) {
	var def model.EventDefinition
	var start, end int64
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, external_id, name, start_time, end_time, capacity, prize_info
		 FROM fcfs_events WHERE seq = ?`, seq,
	).Scan(&def.Seq, &def.ExternalID, &def.Name, &start, &end, &def.Capacity, &def.PrizeInfo)
	if err == sql.ErrNoRows {
		return model.EventDefinition{}, fmt.Errorf("%w: event %d", ErrNotFound, seq)
	}
	if err != nil {
		return model.EventDefinition{}, fmt.Errorf("%w: query event: %v", ErrStorage, err)
	}
	def.StartTime = fromMillis(start)
	def.EndTime = fromMillis(end)
	return def, nil
}

// FindByExternalID returns the event behind the given external identifier.
func (s *SQLiteStore) FindByExternalID(ctx context.Context, externalID string) (model.EventDefinition, error) {
	var def model.EventDefinition
	var start, end int64
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, external_id, name, start_time, end_time, capacity, prize_info
		 FROM fcfs_events WHERE external_id = ?`, externalID,
	).Scan(&def.Seq, &def.ExternalID, &def.Name, &start, &end, &def.Capacity, &def.PrizeInfo)
	if err == sql.ErrNoRows {
		return model.EventDefinition{}, fmt.Errorf("%w: event %s", ErrNotFound, externalID)
	}
	if err != nil {
		return model.EventDefinition{}, fmt.Errorf("%w: query event: %v", ErrStorage, err)
	}
	def.StartTime = fromMillis(start)
	def.EndTime = fromMillis(end)
	return def, nil
}

// ResolveMany returns the identities behind the given user ids.
func (s *SQLiteStore) ResolveMany(ctx context.Context, userIDs []string) ([]model.ParticipantIdentity, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(userIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, user_id, user_name, phone FROM event_users WHERE user_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query users: %v", ErrStorage, err)
	}
	defer rows.Close()

	var users []model.ParticipantIdentity
	for rows.Next() {
		var u model.ParticipantIdentity
		if err := rows.Scan(&u.Seq, &u.UserID, &u.UserName, &u.Phone); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", ErrStorage, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate users: %v", ErrStorage, err)
	}
	return users, nil
}

// SaveAll persists winning records. Existing (event, user) pairs are ignored.
func (s *SQLiteStore) SaveAll(ctx context.Context, records []model.WinningRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fcfs_winning_records (event_seq, user_seq, winning_time)
		 VALUES (?, ?, ?)
		 ON CONFLICT(event_seq, user_seq) DO NOTHING`,
	)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrStorage, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.EventSeq, rec.UserSeq, toMillis(rec.WinningTime)); err != nil {
			return fmt.Errorf("%w: insert winning record: %v", ErrStorage, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

// ListByEvent returns every winning record of one event, ordered by winning time.
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventSeq int64) ([]model.WinningRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.event_seq, w.user_seq, u.user_id, u.user_name, u.phone, w.winning_time
		 FROM fcfs_winning_records w
		 JOIN event_users u ON u.seq = w.user_seq
		 WHERE w.event_seq = ?
		 ORDER BY w.winning_time`,
		eventSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query winning records: %v", ErrStorage, err)
	}
	defer rows.Close()

	var records []model.WinningRecord
	for rows.Next() {
		var rec model.WinningRecord
		var winning int64
		if err := rows.Scan(&rec.EventSeq, &rec.UserSeq, &rec.UserID, &rec.UserName, &rec.Phone, &winning); err != nil {
			return nil, fmt.Errorf("%w: scan winning record: %v", ErrStorage, err)
		}
		rec.WinningTime = fromMillis(winning)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate winning records: %v", ErrStorage, err)
	}
	return records, nil
}
