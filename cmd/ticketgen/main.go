package main

import (
	"flag"
	"fmt"
	"locate-mcp/cmd/ticketgen/corpus"
	"os"
	"time"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, slow-members, no-shows")
	outDir := flag.String("out", "./.cache", "Output directory for the generated store")
	count := flag.Int("count", 60, "Number of tickets to generate")
	seed := flag.Int64("seed", 1, "Random seed (same seed, same corpus shape)")
	flag.Parse()

	cfg := corpus.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Count: %d) to %s...\n", cfg.Scenario, cfg.Count, *outDir)

	records := corpus.Generate(cfg)

	if err := corpus.Save(*outDir, records); err != nil {
		fmt.Printf("Failed to save corpus: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d tickets written.\n", len(records))
}
