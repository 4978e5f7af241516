package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/dnslens/internal/config"
	"github.com/runnerr0/dnslens/internal/engine"
	"github.com/runnerr0/dnslens/internal/logging"
	"github.com/runnerr0/dnslens/internal/storage"
)

// loadConfig reads the config named by --config, or the default path,
// creating it with defaults when missing. Environment overrides apply last.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	path := config.DefaultConfigPath
	if globals != nil && globals.Config != "" {
		path = globals.Config
	}
	path, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrCreateAt(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// sqliteDSN builds the go-sqlite3 connection string for path.
func sqliteDSN(path string, cfg config.StorageConfig) string {
	params := url.Values{}
	params.Set("_journal_mode", strings.ToUpper(cfg.SQLiteJournalMode))
	params.Set("_busy_timeout", strconv.Itoa(cfg.BusyTimeoutMS))
	return path + "?" + params.Encode()
}

// openStore opens the configured database, runs migrations, and returns a
// ready-to-use store and the underlying *sql.DB.
func openStore(cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(dbPath, cfg.Storage))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Storage.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(cfg.Storage.SQLiteJournalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// commandLogger returns a debug logger on stderr with --verbose, else nil.
func commandLogger(globals *GlobalFlags) *slog.Logger {
	if globals == nil || !globals.Verbose {
		return nil
	}
	logger, _, err := logging.New(config.LoggingConfig{Level: "debug", Format: "text"}, "", os.Stderr)
	if err != nil {
		return nil
	}
	return logger
}

// withEngine opens the configured store and runs fn with an engine over it.
func withEngine(globals *GlobalFlags, fn func(eng *engine.Engine) error) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return fn(engine.New(store, commandLogger(globals)))
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
		if len(s) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(s); i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
