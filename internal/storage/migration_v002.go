package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// foldDomain is the case folding applied to domains and domain filters.
// SQLite's lower() only folds ASCII, so folding happens in Go and the result
// is stored alongside the original.
func foldDomain(s string) string {
	return strings.ToLower(s)
}

// migrateV002 adds dns_events.domain_fold and backfills it for rows written
// before the column existed.
func migrateV002(tx *sql.Tx) error {
	if _, err := tx.Exec(`ALTER TABLE dns_events ADD COLUMN domain_fold TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add domain_fold: %w", err)
	}

	rows, err := tx.Query(`SELECT rowid, domain FROM dns_events`)
	if err != nil {
		return fmt.Errorf("read domains: %w", err)
	}
	type pending struct {
		rowid  int64
		domain string
	}
	var backfill []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.rowid, &p.domain); err != nil {
			rows.Close()
			return fmt.Errorf("scan domain: %w", err)
		}
		backfill = append(backfill, p)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range backfill {
		if _, err := tx.Exec(`UPDATE dns_events SET domain_fold = ? WHERE rowid = ?`, foldDomain(p.domain), p.rowid); err != nil {
			return fmt.Errorf("backfill row %d: %w", p.rowid, err)
		}
	}
	return nil
}
