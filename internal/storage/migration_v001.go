package storage

import "database/sql"

// migrateV001 creates the initial dnslens schema: the events table and the
// indexes backing every sortable column. Every statement uses IF NOT EXISTS
// for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		// ts and created_at hold Unix milliseconds. rowid is the insertion
		// order and breaks sort ties.
		`CREATE TABLE IF NOT EXISTS dns_events (
			id                     TEXT NOT NULL UNIQUE,
			ts                     INTEGER NOT NULL,
			prediction             TEXT NOT NULL CHECK (prediction IN ('benign', 'malware', 'spam', 'phishing')),
			domain                 TEXT NOT NULL CHECK (domain <> ''),
			event_type             TEXT NOT NULL CHECK (event_type IN ('Query', 'Response')),
			dns_domain_name_length REAL NOT NULL,
			numerical_percentage   REAL NOT NULL,
			character_entropy      REAL NOT NULL,
			max_numeric_length     REAL NOT NULL,
			max_alphabet_length    REAL NOT NULL,
			vowels_consonant_ratio REAL NOT NULL,
			receiving_bytes        REAL NOT NULL,
			sending_bytes          REAL NOT NULL,
			ttl_mean               REAL NOT NULL,
			created_at             INTEGER NOT NULL
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_dns_events_ts          ON dns_events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_dns_events_created_at  ON dns_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_dns_events_domain      ON dns_events(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_dns_events_prediction  ON dns_events(prediction)`,
		`CREATE INDEX IF NOT EXISTS idx_dns_events_event_type  ON dns_events(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_dns_events_name_length ON dns_events(dns_domain_name_length)`,
		`CREATE INDEX IF NOT EXISTS idx_dns_events_entropy     ON dns_events(character_entropy)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
