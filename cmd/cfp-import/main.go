// Command cfp-import pulls call-for-papers submissions for one or more
// conferences and reconciles them into the local dataset.
//
// Usage:
//
//	cfp-import [--config=path] [--conference=id[,id...]] [--dry-run] [--watch] [--requested-by=email]
//
// Without --conference every conference with CFP credentials is imported.
// The run results are printed to stdout as JSON; logs go to stderr.
// With --watch the import repeats every import.interval until interrupted.
//
// Exit codes: 0 = every import succeeded, 1 = an import failed, 2 = usage or setup error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/cfp-sync/internal/app"
	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/service/importer"
	"github.com/heartmarshall/cfp-sync/pkg/ctxutil"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always runs.
func run() int {
	configPath := flag.String("config", "", "path to config YAML (default: $CONFIG_PATH or ./config.yaml)")
	conferences := flag.String("conference", "", "comma-separated conference ids (default: all importable)")
	dryRun := flag.Bool("dry-run", false, "compute the report without writing")
	watch := flag.Bool("watch", false, "repeat the import every import.interval")
	requestedBy := flag.String("requested-by", "", "organizer email recorded in logs")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(app.BuildVersion())
		return exitOK
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		log.Printf("load config: %v", err)
		return exitSetup
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ids := splitIDs(*conferences)
	if *requestedBy != "" {
		r := ctxutil.Requester{Email: *requestedBy}
		if len(ids) == 1 {
			r.ConferenceID = ids[0]
		}
		ctx = ctxutil.WithRequester(ctx, r)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		return exitSetup
	}
	defer a.Close()

	sched := a.Scheduler(ids, importer.Options{DryRun: *dryRun})

	if *watch {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return a.ServeOps(gctx, sched) })
		g.Go(func() error {
			sched.Start(gctx, cfg.Import.Interval)
			return nil
		})
		if err := g.Wait(); err != nil {
			logger.Error("watch stopped", slog.String("error", err.Error()))
			return exitFailed
		}
		return exitOK
	}

	results, err := sched.RunOnce(ctx)
	if err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		return exitFailed
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		logger.Error("write report", slog.String("error", err.Error()))
		return exitFailed
	}

	return resultsExitCode(results)
}

const (
	exitOK     = 0
	exitFailed = 1
	exitSetup  = 2
)

func resultsExitCode(results []app.RunResult) int {
	for _, r := range results {
		if r.Error != "" {
			return exitFailed
		}
	}
	return exitOK
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
