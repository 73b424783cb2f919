package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/TorellinX/SEP-Chat/internal/chat"
)

func main() {
	fs := flag.NewFlagSet("chat-server", flag.ExitOnError)
	addr := fs.StringP("addr", "a", "localhost:8080", "chat listen address")
	metricsAddr := fs.StringP("metrics-addr", "m", ":9090", "metrics listen address")
	debug := fs.BoolP("debug", "d", false, "enable debug logging")
	_ = fs.Parse(os.Args[1:])

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	srv := chat.NewServer(*addr, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	go serveMetrics(*metricsAddr, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Info("metrics endpoint started", "addr", addr)
	if err := metricsSrv.ListenAndServe(); err != nil {
		logger.Error("metrics endpoint failed", "error", err)
	}
}
