// cmd/stubclassifier/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/stub"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	latency := flag.Duration("latency", 0, "added latency per request")
	failEvery := flag.Int("fail-every", 0, "return 503 on every Nth request (0 disables)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	handler := stub.New(stub.Config{
		Answers:   stub.DefaultAnswers(),
		Fallback:  []classifier.Label{{Name: "Object", Confidence: 50}},
		Latency:   *latency,
		FailEvery: *failEvery,
	}, logger)

	server := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down stub classifier...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("stub classifier listening", zap.String("addr", *addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
