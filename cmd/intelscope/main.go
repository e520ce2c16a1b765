package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/bnf/intelscope/pkg/aggregator"
	"github.com/bnf/intelscope/pkg/client"
	"github.com/bnf/intelscope/pkg/config"
	"github.com/bnf/intelscope/pkg/repository"
	"github.com/bnf/intelscope/pkg/scheduler"
	"github.com/bnf/intelscope/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"intelscope.yml" description:"config file path"`
	NoDB   bool   `long:"no-db" env:"NO_DB" description:"disable history persistence"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] failed to load config: %v", err)
		os.Exit(1)
	}

	setupLog(opts.Debug, cfg.API.ServiceKey)

	log.Printf("[INFO] starting intelscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts); err != nil {
		log.Printf("[ERROR] intelscope failed: %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

// run wires the components and blocks until the context is canceled
func run(ctx context.Context, cfg *config.Config, opts Opts) error {
	apiClient := client.New(cfg.API.BaseURL, cfg.API.ServiceKey, cfg.API.Timeout)

	newsFeeds := make([]aggregator.NewsFeed, 0, len(cfg.News))
	for _, nf := range cfg.News {
		newsFeeds = append(newsFeeds, aggregator.NewsFeed{Name: nf.Name, URL: nf.URL})
	}

	aggCfg := aggregator.Config{
		Days:         cfg.Feed.Days,
		PerPage:      cfg.Feed.PerPage,
		StaleTTL:     cfg.Feed.StaleTTL,
		FetchTimeout: cfg.Feed.FetchTimeout,
		RetryDelay:   cfg.Feed.RetryDelay,
		NewsFeeds:    newsFeeds,
	}
	feedAgg := aggregator.New(apiClient, aggCfg)
	summaryAgg := aggregator.NewSummaries(apiClient, aggCfg)

	var store *repository.Repository
	if !opts.NoDB {
		var err error
		store, err = repository.New(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("init repository: %w", err)
		}
		defer store.Close()
	}

	var schedStore scheduler.HistoryStore
	var srvHistory server.History
	if store != nil {
		schedStore = store
		srvHistory = store
	}

	sched := scheduler.New(feedAgg, summaryAgg, schedStore, cfg.Schedule.RefreshInterval)
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(cfg, feedAgg, summaryAgg, srvHistory, revision, opts.Debug)
	return srv.Run(ctx)
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	secrets := make([]string, 0, len(secs))
	for _, sec := range secs {
		if sec != "" {
			secrets = append(secrets, sec)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
