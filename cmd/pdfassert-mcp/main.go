// Command pdfassert-mcp serves the PDF assertion tools to MCP clients.
//
// By default it speaks MCP over stdin/stdout. With -http it serves the
// streamable HTTP transport at <addr>/mcp instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuitang/site-e2e/internal/config"
	"github.com/kuitang/site-e2e/internal/mcptools"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
)

func main() {
	obs.Init()
	logger := obs.Pkg("pdfassert-mcp")

	cfgFlags := config.RegisterFlags(flag.CommandLine)
	httpAddr := flag.String("http", "", "Serve streamable HTTP on this address (e.g. :8090) instead of stdio")
	root := flag.String("root", "", "Only allow PDF paths inside this directory")
	flag.Parse()

	cfg, err := config.Load(cfgFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfassert-mcp: %v\n", err)
		os.Exit(2)
	}
	obs.SetLevel(cfg.LogLevel)
	cfg.PrintStartupSummary()

	backend, err := pdfassert.BackendByName(cfg.PDFBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfassert-mcp: %v\n", err)
		os.Exit(2)
	}
	checker := pdfassert.New(pdfassert.WithBackend(backend))
	server := mcptools.NewServer(checker, mcptools.WithRoot(*root))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *httpAddr != "" {
		err = server.ListenAndServe(ctx, *httpAddr)
	} else {
		err = server.RunStdio(ctx)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
