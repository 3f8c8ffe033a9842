// Package main answers one-shot or interactive queries against a
// previously built, QUERYABLE index. It contains no ranking logic of its
// own — it is the external CLI layer spec.md §6 names as the search()
// caller.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/axelbigot/webidx/internal/apppaths"
	"github.com/axelbigot/webidx/internal/index"
	"github.com/axelbigot/webidx/pkg/types"
)

func main() {
	cfg, query := parseFlags()

	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		log.Fatalf("Failed to resolve app data dir: %v", err)
	}

	// Prefer a persisted index over a full rebuild; Build() falls back to
	// rebuilding automatically if no complete persisted index is found.
	cfg.Build.LoadExisting = true

	idx, err := index.New(cfg, paths)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}

	if err := idx.Build(); err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	log.Printf("Index is %s", idx.State())

	if query != "" {
		runQuery(idx, query)
		return
	}

	fmt.Println("Enter queries, one per line. Ctrl-D to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		runQuery(idx, scanner.Text())
	}
}

func runQuery(idx *index.Index, query string) {
	resp, err := idx.Search(query)
	if err != nil {
		log.Printf("search error: %v", err)
		return
	}
	if len(resp.Results) == 0 {
		fmt.Println("(no results)")
	}
	for i, r := range resp.Results {
		fmt.Printf("%d. %s\n", i+1, r.URL)
	}
	if resp.TimingInfo != "" {
		fmt.Printf("timing: %s\n", resp.TimingInfo)
	}
}

func parseFlags() (*types.Config, string) {
	cfg := types.DefaultConfig()

	flag.StringVar(&cfg.Build.SourceDir, "source-dir", cfg.Build.SourceDir, "Corpus root directory")
	flag.StringVar(&cfg.Build.SourceDir, "s", cfg.Build.SourceDir, "Corpus root directory (shorthand)")
	flag.StringVar(&cfg.Build.Name, "name", cfg.Build.Name, "Index name")

	query := flag.String("query", "", "One-shot query; omit for REPL mode")
	flag.StringVar(query, "q", "", "One-shot query (shorthand)")

	dataDir := flag.String("data-dir", "", "Override application data directory")

	help := flag.Bool("help", false, "Show help")
	flag.BoolVar(help, "h", false, "Show help (shorthand)")

	flag.Parse()
	cfg.Storage.AppDataDir = *dataDir

	if *help {
		fmt.Print(`webidx-search - query a disk-resident inverted index

Usage:
  webidx-search -source-dir DIR [-query "text"]

Options:
  -s, --source-dir DIR   Corpus root directory (required)
  --name NAME            Index name
  -q, --query TEXT       One-shot query; omit for REPL mode
  --data-dir DIR         Override application data directory
  -h, --help             Show this help
`)
		os.Exit(0)
	}
	if cfg.Build.SourceDir == "" {
		fmt.Fprintln(os.Stderr, "webidx-search: -source-dir is required")
		os.Exit(2)
	}
	return cfg, *query
}
