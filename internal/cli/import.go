package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/runnerr0/dnslens/internal/engine"
)

// Execute implements the go-flags Commander interface for ImportCommand.
func (c *ImportCommand) Execute(args []string) error {
	if c.File == "" {
		return fmt.Errorf("--file is required for import command")
	}

	return withEngine(c.globals, func(eng *engine.Engine) error {
		return c.executeWithEngine(eng, os.Stdin)
	})
}

// executeWithEngine imports through eng, reading stdin for "-" (for testing).
func (c *ImportCommand) executeWithEngine(eng *engine.Engine, stdin io.Reader) error {
	var data []byte
	var err error
	if c.File == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	n, err := eng.Ingest(context.Background(), data)
	if err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"success":  true,
			"inserted": n,
		})
	}

	fmt.Printf("Imported %s events\n", formatNumber(int64(n)))
	return nil
}
