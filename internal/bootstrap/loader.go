// Package bootstrap seeds the record store from a JSON snapshot once, before
// the HTTP server starts.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"niederschlag-server/internal/config"
	"niederschlag-server/internal/modules/precipitation/repository"
	"niederschlag-server/internal/modules/precipitation/types"
	"niederschlag-server/internal/observability"
)

// ErrSnapshot marks a snapshot that could not be opened or decoded.
var ErrSnapshot = errors.New("bootstrap: snapshot")

// Result describes one Load call.
type Result struct {
	Source  string `json:"source"`
	Mode    string `json:"mode"`
	Loaded  int    `json:"loaded"`
	Skipped bool   `json:"skipped"`
}

// Notifier is told about every successful Load.
type Notifier interface {
	NotifyLoaded(ctx context.Context, res Result) error
}

type Loader struct {
	repo     repository.RecordRepository
	snapshot Snapshot
	mode     config.BootstrapMode
	logger   *slog.Logger
	metrics  *observability.Metrics
	notifier Notifier
}

type Option func(*Loader)

func WithMetrics(m *observability.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(l *Loader) { l.notifier = n }
}

func NewLoader(repo repository.RecordRepository, snapshot Snapshot, mode config.BootstrapMode, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = config.BootstrapIfEmpty
	}
	l := &Loader{
		repo:     repo,
		snapshot: snapshot,
		mode:     mode,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the snapshot and bulk-inserts it. Any error is fatal for the
// caller; nothing is inserted unless the whole snapshot decodes.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	res := Result{Source: l.snapshot.Name, Mode: string(l.mode)}

	switch l.mode {
	case config.BootstrapOff:
		res.Skipped = true
		l.logger.Info("bootstrap disabled", "mode", res.Mode)
		l.observe("off", 0)
		return res, nil
	case config.BootstrapIfEmpty:
		n, err := l.repo.Count(ctx)
		if err != nil {
			l.observe("error", 0)
			return res, fmt.Errorf("bootstrap: count existing records: %w", err)
		}
		if n > 0 {
			res.Skipped = true
			l.logger.Info("bootstrap skipped, store not empty", "existing", n, "source", res.Source)
			l.observe("skipped", 0)
			return res, nil
		}
	case config.BootstrapAlways:
	default:
		return res, fmt.Errorf("bootstrap: unknown mode %q", l.mode)
	}

	records, err := l.read()
	if err != nil {
		l.observe("error", 0)
		return res, err
	}

	if err := l.repo.SaveAll(ctx, records); err != nil {
		l.observe("error", 0)
		return res, fmt.Errorf("bootstrap: save records: %w", err)
	}
	res.Loaded = len(records)
	l.observe("loaded", res.Loaded)
	l.logger.Info("bootstrap loaded snapshot", "source", res.Source, "records", res.Loaded, "mode", res.Mode)

	if l.notifier != nil {
		if err := l.notifier.NotifyLoaded(ctx, res); err != nil {
			l.logger.Warn("bootstrap notification failed", "error", err)
		}
	}
	return res, nil
}

func (l *Loader) read() (_ []types.Record, err error) {
	if l.snapshot.Open == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrSnapshot)
	}
	rc, err := l.snapshot.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSnapshot, l.snapshot.Name, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrSnapshot, l.snapshot.Name, closeErr)
		}
	}()

	records, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrSnapshot, l.snapshot.Name, err)
	}
	return records, nil
}

func (l *Loader) observe(outcome string, loaded int) {
	if l.metrics == nil {
		return
	}
	l.metrics.BootstrapRuns.WithLabelValues(outcome).Inc()
	if loaded > 0 {
		l.metrics.RecordsLoaded.Add(float64(loaded))
	}
}
