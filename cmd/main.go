package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/civic_reports/config"
	deps "github.com/bwise1/civic_reports/internal/debs"
	api "github.com/bwise1/civic_reports/internal/http/rest"
	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			log.Printf("sentry init failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	deps := deps.New(cfg)
	a := &api.API{
		Config: cfg,
		Deps:   deps,
	}

	ctx, stopSessions := context.WithCancel(context.Background())
	sessionsDone := make(chan struct{})
	go func() {
		deps.Sessions.Run(ctx)
		close(sessionsDone)
	}()
	go deps.WebSocket.Run()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Printf("Server running on port %v ...", cfg.Port)
	go serve(a, stopChan)

	<-stopChan

	log.Println("Request to shutdown server. Doing nothing for ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Println("Shutting down server...")

	if err := a.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	deps.WebSocket.Stop()
	stopSessions()
	<-sessionsDone
	log.Println("Sessions closed.")
}

type server interface {
	Serve() error
}

// serve runs srv and, when it fails, asks main to go through the normal
// shutdown path so deferred flushes still run.
func serve(srv server, stop chan<- os.Signal) {
	if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server stopped: %v", err)
		sentry.CaptureException(err)
		select {
		case stop <- syscall.SIGTERM:
		default:
		}
	}
}
