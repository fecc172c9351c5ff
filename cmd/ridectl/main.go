// ridectl is the terminal vehicle registration form. Suggestions come from
// the API's lookup endpoints when it is reachable and from the bundled
// datasets otherwise. On save it prints the collected fields as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/internal/lookup"
	"rideshare_backend/internal/lookup/client"
	"rideshare_backend/internal/lookup/dataset"
	"rideshare_backend/internal/ui/vehicleform"
	"rideshare_backend/platform/logger"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var apiURL string
	var offline bool
	var logOutput string
	var env string
	var timeout time.Duration

	flagSet := pflag.NewFlagSet("ridectl", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api", envOr("RIDECTL_API_URL", "http://localhost:8080"), "base URL of the rideshare API")
	flagSet.BoolVar(&offline, "offline", false, "use the bundled datasets only")
	flagSet.StringVar(&logOutput, "log-output", "", "write log records to this file")
	flagSet.StringVar(&env, "env", "production", "log format: development for text, anything else for JSON")
	flagSet.DurationVar(&timeout, "timeout", 8*time.Second, "timeout for each lookup request")
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

	var logWriter io.Writer = io.Discard
	if logOutput != "" {
		f, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log output: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		logWriter = f
	}
	log := logger.NewWithWriter(env, logWriter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bundle, err := dataset.Load()
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	opts := vehicleform.Options{Bundle: bundle, Log: log}
	if !offline {
		httpClient := &http.Client{Timeout: timeout}
		opts.Remote = vehicleform.Sources{
			Makes:     dial(apiURL, lookup.KindVehicleMakes, httpClient),
			Models:    dial(apiURL, lookup.KindVehicleModels, httpClient),
			Countries: dial(apiURL, lookup.KindCountries, httpClient),
			Addresses: dial(apiURL, lookup.KindAddresses, httpClient),
		}
	}

	form := vehicleform.New(ctx, opts)
	defer form.Dispose()

	program := tea.NewProgram(form,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run form: %w", err)
	}

	if !form.Submitted() {
		log.Info("form closed without saving")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(form.Values())
}

func dial(baseURL string, kind lookup.Kind, httpClient *http.Client) vehicleform.RemoteInit {
	return func(ctx context.Context) (autocomplete.RemoteSource, error) {
		src, err := client.Dial(ctx, baseURL, kind, httpClient)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ridectl - register a vehicle from the terminal

Usage:
  ridectl [flags]

Type to search, enter to pick a suggestion, tab to move between fields,
ctrl+s to save and print the collected fields.

Flags:
`)
	flagSet.PrintDefaults()
}
