package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store defines the record store consumed by the listing, aggregation and
// ingestion paths.
type Store interface {
	InsertBatch(ctx context.Context, events []EventRecord) error
	ListEvents(ctx context.Context, q ListQuery) ([]EventRecord, error)
	CountEvents(ctx context.Context, f Filter) (int64, error)
	ScanEvents(ctx context.Context, fn func(*EventRecord) error) error
	Ping(ctx context.Context) error
	Close() error
}

const eventColumns = `id, ts, prediction, domain, event_type,
	dns_domain_name_length, numerical_percentage, character_entropy,
	max_numeric_length, max_alphabet_length, vowels_consonant_ratio,
	receiving_bytes, sending_bytes, ttl_mean, created_at`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	insertEvent *sql.Stmt

	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertEvent, err = s.db.Prepare(`
		INSERT INTO dns_events (` + eventColumns + `, domain_fold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	return err
}

// generateID creates an opaque event identifier.
func generateID() string {
	return uuid.NewString()
}

// whereClause builds the SQL condition for f. The domain is matched as a
// literal substring of the folded domain: instr has no wildcard characters.
func whereClause(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if d := strings.TrimSpace(f.Domain); d != "" {
		clauses = append(clauses, "instr(domain_fold, ?) > 0")
		args = append(args, foldDomain(d))
	}
	if f.Prediction != "" {
		clauses = append(clauses, "prediction = ?")
		args = append(args, string(f.Prediction))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// InsertBatch inserts all events in a single transaction. On success each
// event's ID, CreatedAt and UpdatedAt are populated; on failure nothing is
// written and the events are left untouched.
func (s *SQLiteStore) InsertBatch(ctx context.Context, events []EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	createdAt := time.UnixMilli(s.now().UnixMilli()).UTC()
	ids := make([]string, len(events))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt := tx.StmtContext(ctx, s.insertEvent)
	defer stmt.Close()

	for i := range events {
		e := &events[i]
		ids[i] = generateID()
		_, err := stmt.ExecContext(ctx,
			ids[i], e.Timestamp.UnixMilli(), string(e.Prediction), e.Domain, string(e.EventType),
			e.DomainNameLength, e.NumericalPercentage, e.CharacterEntropy,
			e.MaxNumericLength, e.MaxAlphabetLength, e.VowelsConsonantRatio,
			e.ReceivingBytes, e.SendingBytes, e.TTLMean, createdAt.UnixMilli(),
			foldDomain(e.Domain),
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	for i := range events {
		events[i].ID = ids[i]
		events[i].CreatedAt = createdAt
		events[i].UpdatedAt = createdAt
	}
	return nil
}

// ListEvents returns the events matching q.Filter ordered by q.Sort. Ties
// keep insertion order. An unknown sort column falls back to created_at.
func (s *SQLiteStore) ListEvents(ctx context.Context, q ListQuery) ([]EventRecord, error) {
	where, args := whereClause(q.Filter)

	column, ok := sortColumns[q.Sort]
	if !ok {
		column = sortColumns[SortCreatedAt]
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}

	query := "SELECT " + eventColumns + " FROM dns_events" + where +
		" ORDER BY " + column + " " + dir + ", rowid ASC"

	if q.Limit > 0 {
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// CountEvents returns the number of events matching f.
func (s *SQLiteStore) CountEvents(ctx context.Context, f Filter) (int64, error) {
	where, args := whereClause(f)

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dns_events"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// ScanEvents calls fn for every stored event in insertion order.
// Iteration stops at the first error returned by fn.
func (s *SQLiteStore) ScanEvents(ctx context.Context, fn func(*EventRecord) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM dns_events ORDER BY rowid ASC")
	if err != nil {
		return fmt.Errorf("scan events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate events: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// scanEvent reads one row selected with eventColumns.
func scanEvent(rows *sql.Rows) (EventRecord, error) {
	var e EventRecord
	var prediction, eventType string
	var tsMillis, createdMillis int64

	if err := rows.Scan(
		&e.ID, &tsMillis, &prediction, &e.Domain, &eventType,
		&e.DomainNameLength, &e.NumericalPercentage, &e.CharacterEntropy,
		&e.MaxNumericLength, &e.MaxAlphabetLength, &e.VowelsConsonantRatio,
		&e.ReceivingBytes, &e.SendingBytes, &e.TTLMean, &createdMillis,
	); err != nil {
		return EventRecord{}, fmt.Errorf("scan event: %w", err)
	}

	e.Prediction = Verdict(prediction)
	e.EventType = Direction(eventType)
	e.Timestamp = time.UnixMilli(tsMillis).UTC()
	e.CreatedAt = time.UnixMilli(createdMillis).UTC()
	e.UpdatedAt = e.CreatedAt

	return e, nil
}

// Close releases the prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	if s.insertEvent != nil {
		return s.insertEvent.Close()
	}
	return nil
}
