package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/dnslens/internal/engine"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	return withEngine(c.globals, func(eng *engine.Engine) error {
		return c.executeWithEngine(eng)
	})
}

// executeWithEngine runs the listing against a provided engine (for testing).
func (c *ListCommand) executeWithEngine(eng *engine.Engine) error {
	req := engine.NormalizeListParams(engine.ListParams{
		Domain:     c.Domain,
		Prediction: c.Prediction,
		Page:       c.Page,
		Limit:      c.Limit,
		Sort:       c.Sort,
		Direction:  c.Direction,
	})

	res, err := eng.List(context.Background(), req)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return c.printHuman(res)
}

func (c *ListCommand) printHuman(res *engine.ListResult) error {
	if len(res.Logs) == 0 {
		if res.TotalCount > 0 {
			fmt.Printf("No events on page %d (%s matching)\n", res.Page, formatNumber(res.TotalCount))
		} else {
			fmt.Println("No matching events")
		}
		return nil
	}

	first := 1
	if res.Limit > 0 {
		first = (res.Page-1)*res.Limit + 1
	}
	last := first + len(res.Logs) - 1
	fmt.Printf("Showing %d-%d of %s events\n\n", first, last, formatNumber(res.TotalCount))

	for i, e := range res.Logs {
		fmt.Printf("%d. %s [%s] %s\n", first+i, e.Domain, e.Prediction, e.EventType)
		fmt.Printf("   %s · len %.0f · entropy %.2f · ttl %.0f\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.DomainNameLength, e.CharacterEntropy, e.TTLMean)
		fmt.Printf("   id %s · stored %s\n", e.ID, e.CreatedAt.UTC().Format(time.RFC3339))
	}

	return nil
}
