// Command rdns is a recursive DNS resolver: it answers queries by walking
// the delegation chain from the root down, rather than forwarding to
// another resolver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blazskufca/iterative-dns/internal/resolver"
	"github.com/blazskufca/iterative-dns/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	host := flag.String("host", "0.0.0.0", "address to listen on")
	flag.StringVar(host, "h", "0.0.0.0", "address to listen on (shorthand)")
	port := flag.Uint("port", 53, "UDP port to listen on")
	flag.UintVar(port, "p", 53, "UDP port to listen on (shorthand)")
	reaperDeadline := flag.Duration("reaper-deadline", 10*time.Second, "how long a resolution may stay in flight before it is abandoned")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, or error")
	jsonLogs := flag.Bool("json-logs", false, "emit logs as JSON instead of text")
	flag.Parse()

	logger, err := newLogger(*logLevel, *jsonLogs)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(*host, strconv.FormatUint(uint64(*port), 10))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := transport.Listen(ctx, addr)
	if err != nil {
		return fmt.Errorf("rdns: %w", err)
	}
	defer conn.Close()

	logger.Info("listening", slog.String("address", conn.LocalAddr().String()))

	engine := resolver.New(conn, logger)

	go engine.RunReaper(ctx, *reaperDeadline)

	errCh := make(chan error, 1)
	go func() { errCh <- engine.Run() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		conn.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return fmt.Errorf("rdns: %w", err)
	}
}

func newLogger(level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("rdns: invalid -log-level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}
