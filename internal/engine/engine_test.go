package engine

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/dnslens/internal/storage"
)

// openTestEngine creates an Engine over a migrated in-memory store.
func openTestEngine(t *testing.T) (*Engine, *storage.SQLiteStore) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, nil), store
}

// event builds a valid record with the given identifying fields.
func event(domain string, prediction storage.Verdict, eventType storage.Direction, length float64) storage.EventRecord {
	return storage.EventRecord{
		Timestamp:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Prediction: prediction,
		Domain:     domain,
		EventType:  eventType,
		Features: storage.Features{
			DomainNameLength:     length,
			NumericalPercentage:  0,
			CharacterEntropy:     length / 4,
			MaxNumericLength:     0,
			MaxAlphabetLength:    length,
			VowelsConsonantRatio: 0.4,
			ReceivingBytes:       200,
			SendingBytes:         50,
			TTLMean:              600,
		},
	}
}

func seed(t *testing.T, store storage.Store, events ...storage.EventRecord) {
	t.Helper()
	require.NoError(t, store.InsertBatch(context.Background(), events))
}

// candidateJSON renders one valid upload element, with overrides applied
// verbatim as raw JSON values.
func candidateJSON(domain string, overrides map[string]string) string {
	fields := map[string]string{
		"timestamp":              `"2024-03-01T09:30:00.000Z"`,
		"prediction":             `"benign"`,
		"domain":                 fmt.Sprintf("%q", domain),
		"event_type":             `"Query"`,
		"dns_domain_name_length": `11`,
		"numerical_percentage":   `0.0`,
		"character_entropy":      `2.85`,
		"max_numeric_length":     `0`,
		"max_alphabet_length":    `7`,
		"vowels_consonant_ratio": `0.5`,
		"receiving_bytes":        `180`,
		"sending_bytes":          `45`,
		"ttl_mean":               `3600`,
	}
	for k, v := range overrides {
		if v == "" {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}

	out := "{"
	first := true
	for k, v := range fields {
		if !first {
			out += ","
		}
		first = false
		out += fmt.Sprintf("%q:%s", k, v)
	}
	return out + "}"
}

// failingStore is a Store whose every call fails.
type failingStore struct{ err error }

func (f failingStore) InsertBatch(context.Context, []storage.EventRecord) error { return f.err }
func (f failingStore) ListEvents(context.Context, storage.ListQuery) ([]storage.EventRecord, error) {
	return nil, f.err
}
func (f failingStore) CountEvents(context.Context, storage.Filter) (int64, error) { return 0, f.err }
func (f failingStore) ScanEvents(context.Context, func(*storage.EventRecord) error) error {
	return f.err
}
func (f failingStore) Ping(context.Context) error { return f.err }
func (f failingStore) Close() error               { return nil }

var errDiskIO = stderrors.New("disk I/O error")
