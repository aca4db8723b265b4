package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"checkers/internal/config"
	httpserver "checkers/internal/server/http"
)

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	// headless machines have no browser; that is fine
	_ = cmd.Start()
}

func main() {
	configPath := flag.String("config", "", "JSON config file (defaults apply when empty)")
	addr := flag.String("addr", "", "listen address, overrides the config")
	webDir := flag.String("web", "", "static UI directory, overrides the config")
	depth := flag.Int("depth", 0, "default search depth, overrides the config")
	workers := flag.Int("workers", 0, "concurrent searches, overrides the config")
	noMobility := flag.Bool("no-mobility", false, "drop the mobility term from the evaluator")
	browser := flag.Bool("open", false, "open the UI in the default browser")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[server] %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *webDir != "" {
		cfg.WebDir = *webDir
	}
	if *depth > 0 {
		cfg.DefaultDepth = *depth
		if cfg.MaxDepth < *depth {
			cfg.MaxDepth = *depth
		}
	}
	if *workers > 0 {
		cfg.AnalysisWorkers = *workers
	}
	if *noMobility {
		cfg.Mobility = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] %v", err)
	}

	if err := run(cfg, *browser); err != nil {
		log.Fatalf("[server] %v", err)
	}
}

func run(cfg config.Config, browser bool) error {
	app := httpserver.NewServer(cfg)
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: app,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Run(ctx.Done())
		return nil
	})
	g.Go(func() error {
		log.Printf("[server] listening on %s, serving static from %s (depth %d, workers %d, mobility %v)",
			cfg.Addr, cfg.WebDir, cfg.DefaultDepth, cfg.AnalysisWorkers, cfg.Mobility)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("[server] shutting down: %v", context.Cause(ctx))
		app.Dispatcher.CancelAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[server] graceful shutdown failed: %v", err)
			return server.Close()
		}
		app.Dispatcher.Wait()
		return nil
	})

	if browser {
		go func() {
			time.Sleep(100 * time.Millisecond)
			openBrowser("http://127.0.0.1" + cfg.Addr)
		}()
	}

	err := g.Wait()
	nodes, searches := app.Engine.Stats()
	log.Printf("[server] stopped after %d searches, %d nodes", searches, nodes)
	return err
}
