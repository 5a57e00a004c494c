// Command schedcore runs the deterministic production scheduling core
// either as an HTTP server or as a one-shot file-mode solve.
//
//	schedcore serve [flags]        # POST /schedule, GET /metrics
//	schedcore solve -f request.json [flags]   # solve one request, print to stdout
//
// With no subcommand, schedcore defaults to serve for backward
// compatibility with the bare invocation.
//
// Command-line flags (shared by both subcommands where applicable)
//   - -listen-addr string (default ":8080"): HTTP listen address (serve only)
//   - -default-time-limit duration (default 10s): unused by the server
//     directly today, reserved for a future default-if-omitted policy
//   - -log-level string (default "info"): debug, info, warn, or error
//   - -solve-pool-size int (default 0): bound on concurrent Solve calls,
//     0 selects runtime.NumCPU()
//   - -f string (solve only): path to a request file, "-" for stdin
//
// Usage
//
//	go run ./cmd/schedcore serve -listen-addr :9000 -log-level debug
//	go run ./cmd/schedcore solve -f testdata/request.json
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lineforge/shopsched/internal/api"
	"github.com/lineforge/shopsched/internal/config"
	"github.com/lineforge/shopsched/internal/logging"
	"github.com/lineforge/shopsched/internal/parallel"
	"github.com/lineforge/shopsched/internal/scheduling"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !isFlag(args[0]) {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		runServe(args)
	case "solve":
		runSolve(args)
	default:
		fmt.Fprintf(os.Stderr, "schedcore: unknown subcommand %q (want serve or solve)\n", cmd)
		os.Exit(1)
	}
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

func runServe(args []string) {
	var opts config.Options
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	opts.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "schedcore: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedcore: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	poolSize := opts.ParallelSearchPool
	if poolSize == 0 {
		poolSize = runtime.NumCPU()
	}
	pool := parallel.NewWorkerPool(poolSize)
	defer pool.Shutdown()

	metrics := scheduling.NewMetrics(prometheus.DefaultRegisterer)
	svc := scheduling.NewServiceWithPool(log, metrics, pool)

	srv := api.NewServer(opts.ListenAddr, svc, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infow("schedcore listening", "addr", opts.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := api.Shutdown(context.Background(), srv); err != nil {
		log.Errorw("shutdown error", "error", err)
	}
}

func runSolve(args []string) {
	var opts config.Options
	var requestPath string
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	opts.AddFlags(fs)
	fs.StringVar(&requestPath, "f", "-", "path to a request file, or - for stdin")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	log, err := logging.New(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedcore: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	in := os.Stdin
	if requestPath != "-" {
		f, err := os.Open(requestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "schedcore: opening %s: %v\n", requestPath, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	svc := scheduling.NewService(log, nil)
	ok, err := api.RunFile(context.Background(), svc, in, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if !ok {
		os.Exit(1)
	}
}
