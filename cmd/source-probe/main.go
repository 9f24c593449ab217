// Developer program that runs every enabled source adapter once and
// reports story counts, dates and failures. No language model is involved.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/strata/internal/model"
	"github.com/ppiankov/strata/internal/pipeline"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "per-source timeout")
	all := flag.Bool("all", false, "probe disabled presets too")
	flag.Parse()

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	if *all {
		for i := range cfg.Sources {
			cfg.Sources[i].Enabled = true
		}
	}

	p, err := pipeline.New(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Source Probe ===")
	fmt.Println()

	failed := 0
	for _, name := range p.Sources() {
		fmt.Println(name)
		fmt.Println(strings.Repeat("-", 60))

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		start := time.Now()
		stories, err := p.FetchSource(ctx, name)
		cancel()

		if err != nil {
			failed++
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}

		fmt.Printf("  ✓ %d stories in %v\n", len(stories), time.Since(start).Round(time.Millisecond))
		for _, story := range stories {
			fmt.Printf("    - %s [%s]\n", story.Title, describeDate(story))
			fmt.Printf("      %s\n", story.Source)
		}
		fmt.Println()
	}

	if failed > 0 {
		fmt.Printf("%d of %d sources failed\n", failed, len(p.Sources()))
		os.Exit(1)
	}
	fmt.Println("All sources OK")
}

func describeDate(s model.RawStory) string {
	switch {
	case s.PublishedAt == nil:
		return "no date field"
	case *s.PublishedAt == "":
		return "empty date"
	default:
		return *s.PublishedAt
	}
}
