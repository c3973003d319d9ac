package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cabraviva/knorry/internal/fixture"
)

func main() {
	addr := flag.String("addr", ":4560", "listen address")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "knorry-fixtures",
		Level: hclog.Debug,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fixture.New(logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving fixtures", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
