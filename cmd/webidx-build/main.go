// Package main builds a disk-resident inverted index from a corpus of
// JSON-wrapped HTML documents.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v2"

	"github.com/axelbigot/webidx/internal/apppaths"
	"github.com/axelbigot/webidx/internal/index"
	"github.com/axelbigot/webidx/pkg/types"
)

const version = "0.1.0"

func main() {
	cfg := parseFlags()
	printBanner(cfg)

	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		log.Fatalf("Failed to resolve app data dir: %v", err)
	}

	idx, err := index.New(cfg, paths)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	// Destroy removes the index directory unless Persist is set.
	defer idx.Destroy()

	bar := progressbar.New(100)

	log.Println("Starting build...")
	if err := idx.Build(); err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	bar.Add(100)

	log.Printf("Build complete: index is now %s", idx.State())
}

func parseFlags() *types.Config {
	cfg := types.DefaultConfig()

	flag.StringVar(&cfg.Build.SourceDir, "source-dir", cfg.Build.SourceDir, "Corpus root directory")
	flag.StringVar(&cfg.Build.SourceDir, "s", cfg.Build.SourceDir, "Corpus root directory (shorthand)")

	flag.StringVar(&cfg.Build.Name, "name", cfg.Build.Name, "Index name")
	flag.StringVar(&cfg.Build.Name, "n", cfg.Build.Name, "Index name (shorthand)")

	flag.BoolVar(&cfg.Build.Persist, "persist", cfg.Build.Persist, "Keep index directory after process exit")
	flag.BoolVar(&cfg.Build.NoDuplicateDetection, "no-dedup", cfg.Build.NoDuplicateDetection, "Disable SimHash duplicate detection")
	flag.BoolVar(&cfg.Build.LoadExisting, "load-existing", cfg.Build.LoadExisting, "Reuse a persisted index instead of rebuilding, if one is found")

	flag.IntVar(&cfg.Build.PostingsFlushCount, "flush-count", cfg.Build.PostingsFlushCount, "In-memory postings flush threshold")
	flag.IntVar(&cfg.Build.PartitionPostingSize, "partition-size", cfg.Build.PartitionPostingSize, "Target postings per partition")
	flag.Float64Var(&cfg.Build.MinAvailMemoryPerc, "min-mem-perc", cfg.Build.MinAvailMemoryPerc, "Minimum available memory fraction before flush")

	dataDir := flag.String("data-dir", "", "Override application data directory")

	help := flag.Bool("help", false, "Show help")
	flag.BoolVar(help, "h", false, "Show help (shorthand)")

	flag.Parse()

	cfg.Storage.AppDataDir = *dataDir

	if *help {
		printUsage()
		os.Exit(0)
	}
	if cfg.Build.SourceDir == "" {
		fmt.Fprintln(os.Stderr, "webidx-build: -source-dir is required")
		printUsage()
		os.Exit(2)
	}
	return cfg
}

func printUsage() {
	fmt.Print(`webidx-build - build a disk-resident inverted index from a corpus

Usage:
  webidx-build -source-dir DIR [options]

Options:
  -s, --source-dir DIR   Corpus root directory (required)
  -n, --name NAME        Index name (defaults to a slug of source-dir)
  --persist              Keep index directory after process exit (default true)
  --no-dedup             Disable SimHash duplicate detection
  --load-existing        Reuse a persisted index instead of rebuilding, if one is found
  --flush-count N        In-memory postings flush threshold (default 50000)
  --partition-size N     Target postings per partition (default 5000)
  --min-mem-perc F       Minimum available memory fraction before flush (default 0.5)
  --data-dir DIR         Override application data directory
  -h, --help             Show this help
`)
}

func printBanner(cfg *types.Config) {
	fmt.Printf("webidx-build v%s\n", version)
	fmt.Printf("  source: %s\n", cfg.Build.SourceDir)
	fmt.Printf("  name:   %s\n", cfg.Build.Name)
	fmt.Println()
}
