// Package settings provides the site configuration with a hardcoded fallback
// that is replaced by the remote admin API's value once a fetch succeeds.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// State is a point-in-time view of the accessor. Settings must be treated as
// read-only: it may be shared with other readers.
type State struct {
	Settings SiteSettings
	// Loading is true until the first fetch settles.
	Loading bool
	// Error describes the most recent failed fetch. Empty after a success.
	Error string
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithTracerProvider traces every fetch with the given provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Accessor) {
		a.tracer = tp.Tracer("settings")
	}
}

// WithMeterProvider counts fetch outcomes on the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(a *Accessor) {
		a.meterProvider = mp
	}
}

// Accessor serves the current SiteSettings. It never blocks readers on the
// network and never fails: a failed fetch keeps the previous value.
type Accessor struct {
	fetcher       Fetcher
	lg            *zap.Logger
	tracer        trace.Tracer
	meterProvider metric.MeterProvider
	fetches       metric.Int64Counter

	mu       sync.RWMutex
	settings SiteSettings
	loading  bool
	err      string
}

// NewAccessor returns an Accessor holding Default settings in the loading
// state. Call Load once to fetch the remote value.
func NewAccessor(fetcher Fetcher, lg *zap.Logger, opts ...Option) *Accessor {
	a := &Accessor{
		fetcher:       fetcher,
		lg:            lg,
		tracer:        tracenoop.NewTracerProvider().Tracer("settings"),
		meterProvider: metricnoop.NewMeterProvider(),
		settings:      Default(),
		loading:       true,
	}
	for _, o := range opts {
		o(a)
	}

	fetches, err := a.meterProvider.Meter("settings").Int64Counter("settings.fetches",
		metric.WithDescription("Remote settings fetches by outcome"),
	)
	if err != nil {
		lg.Warn("Failed to create settings fetch counter", zap.Error(err))
		fetches, _ = metricnoop.NewMeterProvider().Meter("settings").Int64Counter("settings.fetches")
	}
	a.fetches = fetches

	return a
}

// Load fetches the settings once. On success the current value is replaced
// wholesale and the error is cleared; on failure the current value is kept
// and the error is recorded. Concurrent loads are applied in completion order.
func (a *Accessor) Load(ctx context.Context) {
	ctx, span := a.tracer.Start(ctx, "settings.Load")
	defer span.End()

	fetched, err := a.fetch(ctx)

	a.mu.Lock()
	a.loading = false
	if err != nil {
		a.err = fmt.Sprintf("failed to load site settings: %v", err)
	} else {
		a.settings = *fetched
		a.err = ""
	}
	a.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.lg.Warn("Site settings fetch failed, keeping current value", zap.Error(err))
	} else {
		a.lg.Debug("Site settings loaded")
	}
	a.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Reload re-runs Load. It exists for manual refresh and has the same contract.
func (a *Accessor) Reload(ctx context.Context) {
	a.Load(ctx)
}

// State returns the current settings, loading flag and error.
func (a *Accessor) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return State{
		Settings: a.settings,
		Loading:  a.loading,
		Error:    a.err,
	}
}

// Settings returns the current settings value.
func (a *Accessor) Settings() SiteSettings {
	return a.State().Settings
}

func (a *Accessor) fetch(ctx context.Context) (s *SiteSettings, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s, err = nil, errors.Errorf("fetcher panicked: %v", rec)
		}
	}()

	s, err = a.fetcher.FetchSettings(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("empty settings response")
	}
	return s, nil
}
