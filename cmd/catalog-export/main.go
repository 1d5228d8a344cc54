// Command catalog-export downloads the service catalog from the admin API and
// writes it as gzip-compressed JSON for static site builds.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/marine-storefront/internal/adminapi"
)

func main() {
	var (
		apiURL      string
		outFile     string
		concurrency int
		timeout     time.Duration
	)

	flag.StringVar(&apiURL, "api-url", "", "admin API base URL (or MARINE_API_URL / API_URL env)")
	flag.StringVar(&outFile, "out", "services.json.gz", "output file")
	flag.IntVar(&concurrency, "concurrency", 4, "parallel requests for full service records")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "timeout for a single admin API call")
	flag.Parse()

	if concurrency < 1 {
		slog.Error("concurrency must be at least 1")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, adminapi.ResolveBaseURL(apiURL, os.Getenv), outFile, concurrency, timeout); err != nil {
		slog.Error("catalog export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog export completed successfully", slog.String("out", outFile))
}

func run(ctx context.Context, apiURL, outFile string, concurrency int, timeout time.Duration) error {
	slog.Info("fetching catalog", slog.String("api_url", apiURL))

	client, err := adminapi.NewClient(apiURL, adminapi.ClientConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return errors.Wrap(err, "create admin api client")
	}

	services, err := collect(ctx, client, concurrency)
	if err != nil {
		return errors.Wrap(err, "collect services")
	}

	if err := writeExport(outFile, newExport(services, time.Now())); err != nil {
		return errors.Wrap(err, "write export")
	}
	slog.Info("services exported", slog.Int("count", len(services)))
	return nil
}
