package mobile

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"checkers/internal/config"
	httpserver "checkers/internal/server/http"
)

var (
	mu      sync.Mutex
	running *instance
)

type instance struct {
	app    *httpserver.Server
	server *http.Server
	stop   context.CancelFunc
}

// StartServer starts the local HTTP server in the background and returns the
// address it listens on.
// webDir: physical path to the extracted web assets
// port: port to listen on, e.g. "2888"; "0" picks a free one
func StartServer(webDir string, port string) (string, error) {
	mu.Lock()
	defer mu.Unlock()
	if running != nil {
		return "", errors.New("server already running")
	}

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:" + port
	cfg.WebDir = webDir
	cfg.MobileWebDir = webDir
	// phones get one search at a time
	cfg.AnalysisWorkers = 1
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return "", errors.Wrap(err, "listen")
	}

	app := httpserver.NewServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go app.Run(ctx.Done())

	server := &http.Server{Handler: app}
	// Run in background so it doesn't block the Android UI thread
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[server] %v", err)
		}
	}()

	running = &instance{app: app, server: server, stop: cancel}
	return ln.Addr().String(), nil
}

// StopServer shuts the server down. It is a no-op when nothing runs.
func StopServer() {
	mu.Lock()
	inst := running
	running = nil
	mu.Unlock()
	if inst == nil {
		return
	}

	inst.app.Dispatcher.CancelAll()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := inst.server.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
	inst.app.Dispatcher.Wait()
	inst.stop()
}
