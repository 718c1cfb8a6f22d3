package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/iraqrahomi/iraqnews-bot/pkg/compose"
	"github.com/iraqrahomi/iraqnews-bot/pkg/config"
	"github.com/iraqrahomi/iraqnews-bot/pkg/dedup"
	"github.com/iraqrahomi/iraqnews-bot/pkg/fetcher"
	"github.com/iraqrahomi/iraqnews-bot/pkg/health"
	"github.com/iraqrahomi/iraqnews-bot/pkg/notify"
	"github.com/iraqrahomi/iraqnews-bot/pkg/processor"
	"github.com/iraqrahomi/iraqnews-bot/pkg/relevance"
	"github.com/iraqrahomi/iraqnews-bot/pkg/repository"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"iraqnews.yml" description:"config file"`
	DB     string `long:"db" env:"DB_DSN" description:"sqlite dsn, overrides config"`
	Once   bool   `long:"once" description:"run one cycle and exit"`
	DryRun bool   `long:"dry-run" env:"DRY_RUN" description:"skip outbound delivery"`

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
		log.Printf("[WARN] config load failed, using defaults: %v", err)
	}
	if opts.DB != "" {
		cfg.Database.DSN = opts.DB
	}

	setupLog(opts.Debug, opts.NoColor, cfg.Telegram.Token, cfg.Composer.APIKey)
	log.Printf("[INFO] starting iraqnews version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

// run opens the store, wires the pipeline and drives it in the selected
// mode. A store open failure is the only fatal condition.
func run(ctx context.Context, cfg *config.Config, opts Opts) error {
	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repos.Close()

	proc, err := makeProcessor(cfg, opts, repos)
	if err != nil {
		return err
	}

	if opts.Once {
		proc.RunCycle(ctx)
		return nil
	}

	log.Printf("[INFO] polling every %s", cfg.PollInterval)
	for {
		proc.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cfg.PollInterval):
		}
	}
}

// makeProcessor assembles the pipeline components from config
func makeProcessor(cfg *config.Config, opts Opts, repos *repository.Repositories) (*processor.Processor, error) {
	client := fetcher.NewClient(cfg.Fetch.Timeout, cfg.Fetch.Attempts)
	var enricher *fetcher.Enricher
	if cfg.Fetch.EnrichContent {
		enricher = fetcher.NewEnricher(client)
	}

	fallback, err := notify.NewDigest(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("prepare digest sink: %w", err)
	}

	var facebook processor.SidePublisher
	if cfg.Facebook.Enabled {
		facebook = compose.NewFacebook(compose.FacebookParams{
			Getter:    client,
			OutDir:    cfg.OutputDir,
			Template:  cfg.Facebook.Template,
			MaxImages: cfg.Facebook.MaxImages,
		})
	}

	return processor.New(processor.Params{
		Sources:  cfg.Sources,
		Feed:     fetcher.NewFeedFetcher(client, enricher, cfg.Fetch.MaxItemsPerSource),
		Scrape:   fetcher.NewScrapeFetcher(client, cfg.Fetch.MaxItemsPerSource),
		Health:   health.NewTracker(repos.Health),
		Detector: dedup.NewDetector(repos.Item, cfg.Dedup.SimilarityThreshold, cfg.Dedup.RecentWindow),
		Ledger:   repos.Item,
		Meta:     repos.Meta,
		Relevance: relevance.NewFilter(relevance.Params{
			Enabled:          cfg.Relevance.Enabled,
			RequiredKeywords: cfg.Relevance.RequiredKeywords,
			CityAliases:      cfg.Relevance.CityAliases,
			StrictCityOnly:   cfg.Relevance.StrictCityOnly,
			DefaultLocality:  cfg.Relevance.DefaultLocality,
		}),
		PrefixLocality: cfg.Relevance.PrefixLocality,
		Composer:       compose.NewComposer(cfg.Composer),
		Notifier: notify.NewTelegram(notify.TelegramParams{
			Token:   cfg.Telegram.Token,
			ChatID:  cfg.Telegram.ChatID,
			DryRun:  opts.DryRun,
			Timeout: cfg.Fetch.Timeout,
		}),
		Fallback:      fallback,
		Facebook:      facebook,
		HardCooldown:  cfg.Health.HardCooldown,
		EmptyCooldown: cfg.Health.EmptyCooldown,
		ItemDelay:     cfg.ItemDelay,
	}), nil
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	secrets := make([]string, 0, len(secs))
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
