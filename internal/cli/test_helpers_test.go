package cli

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/dnslens/internal/engine"
	"github.com/runnerr0/dnslens/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// setupTestStore returns a migrated in-memory store and its db.
func setupTestStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, db
}

// recordJSON renders one valid upload element.
func recordJSON(domain, prediction, eventType string) string {
	return fmt.Sprintf(`{"timestamp":"2024-06-01T12:00:00Z","prediction":%q,"domain":%q,"event_type":%q,`+
		`"dns_domain_name_length":%d,"numerical_percentage":0,"character_entropy":3.2,"max_numeric_length":0,`+
		`"max_alphabet_length":5,"vowels_consonant_ratio":0.6,"receiving_bytes":150,"sending_bytes":42,"ttl_mean":900}`,
		prediction, domain, eventType, len(domain))
}

// seedEngine ingests one record per domain and returns the engine.
func seedEngine(t *testing.T, store storage.Store, domains ...string) *engine.Engine {
	t.Helper()
	eng := engine.New(store, nil)
	if len(domains) == 0 {
		return eng
	}

	data := "["
	for i, d := range domains {
		if i > 0 {
			data += ","
		}
		prediction := "benign"
		if i%2 == 1 {
			prediction = "malware"
		}
		data += recordJSON(d, prediction, "Query")
	}
	data += "]"

	_, err := eng.Ingest(context.Background(), []byte(data))
	require.NoError(t, err)
	return eng
}
