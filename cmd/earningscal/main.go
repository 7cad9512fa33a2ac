package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"earningscal/internal/calendar"
	"earningscal/internal/config"
	"earningscal/internal/finnhub"
	appLog "earningscal/internal/log"
	"earningscal/internal/output"
)

const version = "0.1.0"

// tokenEnv is the only credential this tool knows about.
const tokenEnv = "FINNHUB_TOKEN"

type flagConfig struct {
	configPath string
	outputPath string
	dump       bool
	verbose    bool
}

func main() {
	appLog.Info("earningscal starting", "version", version)

	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	// Best-effort .env loading for development; production injects the
	// token through the environment directly.
	if err := godotenv.Load(); err == nil {
		appLog.Debug("loaded .env file")
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.outputPath != "" {
		conf.Output = flags.outputPath
	}

	token := os.Getenv(tokenEnv)
	if token == "" {
		appLog.Error("credential missing", errors.New(tokenEnv+" env var is not set"))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone in config", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"output", conf.Output,
		"timezone", conf.Timezone,
		"lookbehind_days", conf.LookbehindDays,
		"lookahead_days", conf.LookaheadDays,
		"run_timeout_s", conf.RunTimeoutSeconds,
		"dump", flags.dump,
	)

	// Root context: whole-run timeout plus cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(conf.RunTimeoutSeconds)*time.Second)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, aborting", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, token, loc, flags.dump); err != nil {
		appLog.Error("run failed", err)
		os.Exit(1)
	}

	appLog.Info("earningscal finished")
}

// run is the whole pipeline: fetch, build, serialize, write. The output
// file is only touched after every earlier stage has succeeded.
func run(ctx context.Context, conf *config.Config, token string, loc *time.Location, dump bool) error {
	client := finnhub.NewClient(conf.APIBaseURL, token,
		time.Duration(conf.RequestTimeoutSeconds)*time.Second)

	today := time.Now().In(loc)
	from := today.AddDate(0, 0, -conf.LookbehindDays)
	to := today.AddDate(0, 0, conf.LookaheadDays)

	records, err := client.EarningsCalendar(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetch earnings: %w", err)
	}

	events := calendar.BuildEvents(records, calendar.BuildConfig{Location: loc})
	data := calendar.Serialize(events, conf.CalendarName)

	if dump {
		fmt.Print(data)
		return nil
	}

	if err := output.Write(conf.Output, []byte(data)); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}

	appLog.Info("calendar written", "path", conf.Output, "events", len(events))
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.outputPath, "output", "", "Output ICS path (overrides config if set)")
	flag.BoolVar(&cfg.dump, "dump", false, "Print the calendar to stdout instead of writing the output file")
	flag.BoolVar(&cfg.verbose, "v", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
