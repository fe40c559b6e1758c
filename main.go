// tmdb-tui browses a TMDB movie list in the terminal: infinite scroll,
// rating buckets, title search and sorting.
//
// The API key comes from the config file, TMDB_API_KEY or --api-key. Without
// one the UI still starts and shows a configuration error instead of a list.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sebastiantruijens/tmdb-tui/internal/catalog"
	"github.com/sebastiantruijens/tmdb-tui/internal/config"
	"github.com/sebastiantruijens/tmdb-tui/internal/httpx"
	"github.com/sebastiantruijens/tmdb-tui/internal/logging"
	"github.com/sebastiantruijens/tmdb-tui/internal/metrics"
	"github.com/sebastiantruijens/tmdb-tui/internal/tmdb"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		apiKey      string
		list        string
		logFile     string
		logLevel    string
		metricsAddr string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("tmdb-tui", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (default: "+config.DefaultPath()+")")
	flagSet.StringVar(&apiKey, "api-key", "", "TMDB v3 API key (overrides config and TMDB_API_KEY)")
	flagSet.StringVar(&list, "list", "", "movie list to browse: popular, top_rated, now_playing or upcoming")
	flagSet.StringVar(&logFile, "log-file", "", "append log records to this file")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flagSet.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		fmt.Printf("tmdb-tui %s\n", version)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	explicit := configPath != ""
	if !explicit {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath, explicit)
	if err != nil {
		return err
	}

	// Flags win over file and environment.
	if flagSet.Changed("api-key") {
		cfg.APIKey = apiKey
	}
	if flagSet.Changed("list") {
		cfg.List = list
	}
	if flagSet.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				logrus.WithError(err).WithField("addr", cfg.MetricsAddr).Error("metrics server stopped")
			}
		}()
	}

	client := tmdb.New(tmdb.Options{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		WebURL:     cfg.WebURL,
		List:       cfg.List,
		HTTPClient: httpx.NewClient(cfg.Timeout, cfg.RetryMax, ""),
		RateLimit:  cfg.RateLimit,
		Metrics:    m,
	})

	controller := catalog.New(client,
		catalog.WithLogger(logrus.WithField("list", cfg.List)),
		catalog.WithMetrics(m),
	)

	logrus.WithFields(logrus.Fields{
		"version": version,
		"list":    cfg.List,
		"key_set": client.HasCredential(),
	}).Info("starting")

	model := NewModel(ctx, Options{
		Catalog:   controller,
		Details:   client,
		Ratings:   cfg.Ratings,
		Margin:    cfg.PrefetchMargin,
		ListTitle: listTitle(cfg.List),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// listTitle turns "top_rated" into "Top Rated".
func listTitle(list string) string {
	words := []rune(list)
	for i, r := range words {
		if r == '_' {
			words[i] = ' '
		}
	}
	return cases.Title(language.English).String(string(words))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tmdb-tui: browse TMDB movie lists in the terminal.

Usage:
  tmdb-tui [flags]

Configuration is read from the YAML file, then TMDB_* environment
variables, then flags. Only the API key is required.

Flags:
%s`, flagSet.FlagUsages())
}
