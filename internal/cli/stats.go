package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/dnslens/internal/engine"
)

// statsJSON is the JSON output structure for the stats command.
type statsJSON struct {
	Version           string `json:"version"`
	DatabasePath      string `json:"database_path"`
	DatabaseSizeBytes int64  `json:"database_size_bytes"`
	*engine.StatsSummary
}

// Execute implements the go-flags Commander interface for StatsCommand.
func (c *StatsCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	return c.executeWithEngine(engine.New(store, commandLogger(c.globals)), db, dbPath)
}

// executeWithEngine summarizes through eng and reports on db (for testing).
func (c *StatsCommand) executeWithEngine(eng *engine.Engine, db *sql.DB, dbPath string) error {
	stats, err := eng.Summarize(context.Background())
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	dbSize := getDatabaseSize(db, dbPath)

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statsJSON{
			Version:           c.version,
			DatabasePath:      dbPath,
			DatabaseSizeBytes: dbSize,
			StatsSummary:      stats,
		})
	}
	return c.printHuman(stats, dbPath, dbSize)
}

func (c *StatsCommand) printHuman(stats *engine.StatsSummary, dbPath string, dbSize int64) error {
	fmt.Println("dnslens Stats")
	fmt.Println("=============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Events:        %s\n", formatNumber(stats.TotalLogs))

	if stats.TotalLogs == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("By Prediction:")
	for _, g := range stats.ByPrediction {
		fmt.Printf("  %-20s %s\n", g.ID, formatNumber(g.Count))
	}
	fmt.Println("By Event Type:")
	for _, g := range stats.ByEventType {
		fmt.Printf("  %-20s %s\n", g.ID, formatNumber(g.Count))
	}

	fmt.Println()
	fmt.Println("Averages:")
	fmt.Printf("  %-20s %.2f\n", "domain length", stats.AverageDomainLength)
	fmt.Printf("  %-20s %.2f\n", "entropy", stats.AverageEntropy)
	fmt.Printf("  %-20s %.2f\n", "sending bytes", stats.AverageSendingBytes)
	fmt.Printf("  %-20s %.2f\n", "receiving bytes", stats.AverageReceivingBytes)
	fmt.Printf("  %-20s %.2f\n", "ttl", stats.AverageTTL)
	fmt.Printf("  %-20s %.2f\n", "vowel ratio", stats.AverageVowelsConsonantRatio)

	fmt.Println()
	fmt.Println("Top Domains:")
	for _, d := range stats.TopDomains {
		fmt.Printf("  %-20s %s\n", d.ID, formatNumber(d.Count))
	}

	if stats.LargestDomain != nil {
		fmt.Println()
		fmt.Printf("Longest:       %s (%.0f)\n", stats.LargestDomain.Domain, stats.LargestDomain.DomainNameLength)
	}

	return nil
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}
