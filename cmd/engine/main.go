package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/logger"
	"jobscout-engine/internal/pipeline"
	"jobscout-engine/internal/scheduler"
	"jobscout-engine/internal/secrets"
)

type flags struct {
	configPath    string
	companiesPath string
	profilePath   string
	top           int
	concurrency   int
	batched       bool
	every         time.Duration
	listen        string
	setKey        bool
	deleteKey     bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "config file (default <data_dir>/config.yml)")
	flag.StringVar(&f.companiesPath, "companies", "companies.yml", "YAML list of companies to scan")
	flag.StringVar(&f.profilePath, "profile", "profile.yml", "candidate preference profile")
	flag.IntVar(&f.top, "top", 0, "number of top matches to keep (overrides config and profile top_n)")
	flag.IntVar(&f.concurrency, "concurrency", 0, "max companies processed at once (overrides config)")
	flag.BoolVar(&f.batched, "batched", false, "process companies in fixed-size batches with a delay between them")
	flag.DurationVar(&f.every, "every", 0, "rerun the scan on this interval instead of exiting")
	flag.StringVar(&f.listen, "listen", "", "serve /health, /metrics, /jobs, /cache, /status and /events on this address")
	flag.BoolVar(&f.setKey, "set-oracle-key", false, "read the oracle API key from stdin into the OS keychain and exit")
	flag.BoolVar(&f.deleteKey, "delete-oracle-key", false, "remove the oracle API key from the OS keychain and exit")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		fmt.Fprintln(os.Stderr, "jobscout:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	defer func() { _ = log.Sync() }()

	switch {
	case f.setKey:
		return setOracleKey(cfg.Oracle.KeyringAccount)
	case f.deleteKey:
		return secrets.DeleteOracleKey(cfg.Oracle.KeyringAccount)
	}

	companies, err := config.LoadCompanies(f.companiesPath)
	if err != nil {
		return fmt.Errorf("load companies: %w", err)
	}
	prefs, err := config.LoadProfile(f.profilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	applyOverrides(f, &cfg, &prefs)

	unlock, err := lockDataDir(cfg.App.DataDir)
	if err != nil {
		return err
	}
	defer unlock()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	app.pruneHistory(ctx, cfg.Retention())

	scan := func(ctx context.Context) error {
		res := app.scan(ctx, cfg, f.batched, companies, prefs)
		app.hub.Publish(events.MakeEvent(events.TypeRunDone, "batch", "", 1, map[string]int{
			"companies": len(res.Companies),
			"succeeded": res.Succeeded(),
			"jobs":      res.TotalJobs,
		}))
		if f.every <= 0 {
			if err := printResult(res); err != nil {
				return err
			}
		}
		if res.Succeeded() == 0 && len(companies) > 0 {
			return errors.New("no company completed")
		}
		return nil
	}
	runner := scheduler.NewRunner("scan", scan, log)

	if f.listen != "" {
		srv, err := app.serve(ctx, f.listen, runner)
		if err != nil {
			return err
		}
		defer shutdown(srv, log)
	}

	if f.every > 0 {
		log.Info("[scan] scheduled", zap.Duration("every", f.every), zap.Int("companies", len(companies)))
		scheduler.Every(ctx, f.every, runner)
		return nil
	}
	return runner.RunOnce(ctx)
}

// applyOverrides lets command-line flags win over both the config file and
// the profile.
func applyOverrides(f flags, cfg *config.Config, prefs *domain.UserPreferences) {
	if f.concurrency > 0 {
		cfg.Pipeline.MaxConcurrency = f.concurrency
	}
	if f.top > 0 {
		cfg.Pipeline.TopN = f.top
		prefs.TopN = f.top
	}
}

// loadConfig bootstraps <data_dir>/config.yml from config/config.yml when no
// explicit path is given, then loads and validates it.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		dataDir := os.Getenv("JOBSCOUT_DATA_DIR")
		if dataDir == "" {
			dataDir = "."
		}
		p, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return config.Config{}, fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}

	raw, err := config.Load(path)
	if err != nil {
		return raw, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, v := config.NormalizeAndValidate(raw)
	for _, w := range v.Warnings {
		fmt.Fprintln(os.Stderr, "config warning:", w)
	}
	return cfg, v.Err()
}

func setOracleKey(account string) error {
	fmt.Fprint(os.Stderr, "oracle API key: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read key: %w", err)
	}
	return secrets.SetOracleKey(account, strings.TrimSpace(line))
}

func printResult(res pipeline.BatchResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
