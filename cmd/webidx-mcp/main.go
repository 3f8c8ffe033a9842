// Package main provides an MCP server exposing search() and
// get_path_by_id(), the two external-summary-layer operations spec.md §6
// names, wrapping a local *index.Index directly rather than proxying to
// an HTTP service (this design has no separate memory-server process).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/axelbigot/webidx/internal/apppaths"
	"github.com/axelbigot/webidx/internal/index"
	"github.com/axelbigot/webidx/pkg/types"
)

const version = "0.1.0"

func main() {
	cfg := parseFlags()

	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		log.Fatalf("Failed to resolve app data dir: %v", err)
	}

	idx, err := index.New(cfg, paths)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	if err := idx.Build(); err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	log.Printf("Index is %s", idx.State())

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "webidx-mcp",
		Version: version,
	}, nil)

	registerTools(server, idx)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
}

// Tool argument types

type SearchArgs struct {
	Query string `json:"query" jsonschema:"Search query text"`
}

type GetPathArgs struct {
	DocID uint64 `json:"doc_id" jsonschema:"Document id to resolve to its source file path"`
}

func registerTools(server *mcp.Server, idx *index.Index) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search the index, returning ranked result URLs.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
		resp, err := idx.Search(args.Query)
		if err != nil {
			return nil, nil, err
		}
		return formatSearchResult(resp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_path_by_id",
		Description: "Resolve a document id to its source file path.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetPathArgs) (*mcp.CallToolResult, any, error) {
		path := idx.GetPathByID(types.DocID(args.DocID))
		if path == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "(unknown document id)"}},
			}, nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: path}},
		}, nil, nil
	})
}

func formatSearchResult(resp types.SearchResponse) (*mcp.CallToolResult, any, error) {
	if len(resp.Results) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "(no results)"}},
		}, nil, nil
	}

	text := ""
	for i, r := range resp.Results {
		text += fmt.Sprintf("%d. %s\n", i+1, r.URL)
	}
	if resp.TimingInfo != "" {
		text += fmt.Sprintf("\ntiming: %s\n", resp.TimingInfo)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func parseFlags() *types.Config {
	cfg := types.DefaultConfig()

	flag.StringVar(&cfg.Build.SourceDir, "source-dir", cfg.Build.SourceDir, "Corpus root directory")
	flag.StringVar(&cfg.Build.SourceDir, "s", cfg.Build.SourceDir, "Corpus root directory (shorthand)")
	flag.StringVar(&cfg.Build.Name, "name", cfg.Build.Name, "Index name")

	dataDir := flag.String("data-dir", "", "Override application data directory")

	help := flag.Bool("help", false, "Show help")
	flag.BoolVar(help, "h", false, "Show help (shorthand)")

	flag.Parse()
	cfg.Storage.AppDataDir = *dataDir
	cfg.Build.LoadExisting = true

	if *help {
		fmt.Fprintf(os.Stderr, `webidx-mcp v%s

MCP server exposing search() and get_path_by_id() over stdio.

Usage: webidx-mcp -source-dir DIR [OPTIONS]

Options:
  -s, --source-dir DIR   Corpus root directory (required)
  --name NAME            Index name
  --data-dir DIR         Override application data directory
  -h, --help             Show this help

Claude Code MCP configuration:
  "mcpServers": {
    "webidx": {
      "command": "webidx-mcp",
      "args": ["-source-dir", "/path/to/corpus"]
    }
  }
`, version)
		os.Exit(0)
	}
	if cfg.Build.SourceDir == "" {
		fmt.Fprintln(os.Stderr, "webidx-mcp: -source-dir is required")
		os.Exit(2)
	}
	return cfg
}
