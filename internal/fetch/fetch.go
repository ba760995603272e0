// Package fetch downloads the GeoSphere station dataset to a local file.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultURL = "https://dataset.api.hub.geosphere.at/v1/station/daily/weather_station_daily?parameters=SLP_MIN,SLP_MAX"

	outputFile = "geosphere_data.json"
	indent     = "  "
)

var ErrUnexpectedStatus = errors.New("fetch: unexpected status")

type Fetcher struct {
	Client     *http.Client
	URL        string
	OutputPath string
}

// DefaultOutputPath is geosphere_data.json in the user's home directory.
func DefaultOutputPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("fetch: home directory: %w", err)
	}
	return filepath.Join(home, outputFile), nil
}

// New returns a Fetcher for DefaultURL writing to DefaultOutputPath.
func New() (*Fetcher, error) {
	out, err := DefaultOutputPath()
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		Client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   2 * time.Minute,
		},
		URL:        DefaultURL,
		OutputPath: out,
	}, nil
}

// Fetch issues one GET and, on 200, writes the body re-indented with two
// spaces to OutputPath. Nothing is written on any error.
func (f *Fetcher) Fetch(ctx context.Context) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fetch: read body: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", indent); err != nil {
		return fmt.Errorf("fetch: decode body: %w", err)
	}
	out.WriteByte('\n')

	if err := os.WriteFile(f.OutputPath, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("fetch: write %s: %w", f.OutputPath, err)
	}
	return nil
}
