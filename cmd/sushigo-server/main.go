// Command sushigo-server runs the Sushi Go line-protocol game server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"sushigo/internal/config"
	"sushigo/internal/lobby"
	"sushigo/internal/session"
	"sushigo/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "", "path to the YAML server config")
	listenAddr := pflag.String("listen", "", "TCP listen address (overrides config)")
	wsListenAddr := pflag.String("ws-listen", "", "WebSocket listen address (overrides config)")
	logLevel := pflag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *wsListenAddr != "" {
		cfg.WSListenAddr = *wsListenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	l := lobby.New(logger, nil)
	engine := session.NewEngine(logger, l, cfg.MaxRetries)

	server, err := transport.ListenTCP(cfg.ListenAddr, engine, logger)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	logger.Info("server started", "addr", server.Addr().String())

	var wsServer *http.Server
	if cfg.WSListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", transport.NewWSHandler(engine, logger))
		wsServer = &http.Server{Addr: cfg.WSListenAddr, Handler: mux}
		go func() {
			if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("websocket listener failed", "error", err)
			}
		}()
		logger.Info("websocket listener started", "addr", cfg.WSListenAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	if wsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("websocket shutdown", "error", err)
		}
	}
	return server.Close()
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
