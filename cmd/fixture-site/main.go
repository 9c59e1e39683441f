// Command fixture-site serves the local replica of the marketing site the
// browser suite runs against when no live base URL is configured.
//
// Usage:
//
//	fixture-site -addr 127.0.0.1:8081
//	fixture-site -export out/site
//
// With -export it writes the pages as static HTML and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/sitefixture"
)

func main() {
	obs.Init()
	logger := obs.Pkg("fixture-site")

	addr := flag.String("addr", "127.0.0.1:8081", "Listen address")
	exportDir := flag.String("export", "", "Write static HTML pages to this directory and exit")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()
	obs.SetLevel(*logLevel)

	site, err := sitefixture.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture-site: %v\n", err)
		os.Exit(1)
	}
	defer site.Close()

	if *exportDir != "" {
		paths, err := site.Export(*exportDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fixture-site: %v\n", err)
			os.Exit(1)
		}
		logger.Info("static export complete", "dir", *exportDir, "pages", len(paths))
		return
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           site.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("fixture site listening", "url", "http://"+*addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
