// Package dataset loads the fire detection dataset once per process and
// keeps the decoded table in a single shared slot.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/ports"
	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

// maxLoggedWarnings bounds per-row warning log lines for a single load.
const maxLoggedWarnings = 20

// Loader owns the dataset slot. The slot is keyed by nothing: once filled,
// every Load returns the same table whatever path is passed.
// A failed load leaves the slot empty.
type Loader struct {
	source ports.FireSource
	events ports.EventPublisher
	now    func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	table   *domain.FireTable
	lastErr error
	gen     uint64 // bumped by Reset; a load started in an older generation is discarded
}

// NewLoader creates a Loader reading through source. events may be nil.
func NewLoader(source ports.FireSource, events ports.EventPublisher) *Loader {
	return &Loader{source: source, events: events, now: time.Now}
}

// Load returns the cached table, reading and decoding path on first use.
// Concurrent first callers share a single read.
func (l *Loader) Load(ctx context.Context, path string) (*domain.FireTable, error) {
	if t := l.Cached(); t != nil {
		metrics.DatasetCacheHits.Inc()
		return t, nil
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do("dataset", func() (any, error) {
		l.mu.RLock()
		t, gen := l.table, l.gen
		l.mu.RUnlock()
		if t != nil {
			return t, nil
		}

		t, err := l.load(loadCtx, path)

		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.gen {
			return t, err
		}
		if err != nil {
			l.lastErr = err
			return nil, err
		}
		l.table, l.lastErr = t, nil
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FireTable), nil
}

// Cached returns the table in the slot, or nil when nothing is loaded.
func (l *Loader) Cached() *domain.FireTable {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table
}

// Err returns the error of the most recent failed load, or nil once a load
// has succeeded or before any load finished.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Reset empties the slot so the next Load reads the file again. A load still
// in flight when Reset runs returns its result to its callers but does not
// fill the slot.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.table, l.lastErr = nil, nil
	l.gen++
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context, path string) (*domain.FireTable, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDatasetLoad)
	defer span.End()
	span.SetAttributes(attribute.String("dataset.path", path))

	logger := slog.Default().With("path", path)
	start := l.now()

	raw, err := l.read(ctx, path)
	if err != nil {
		metrics.DatasetLoads.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("dataset load failed", "error", err)
		return nil, err
	}

	table := &domain.FireTable{
		Source: path,
		Rows:   make([]domain.FirePoint, 0, len(raw)),
	}
	for i := range raw {
		p, warn := decodeRow(i, &raw[i])
		if warn != nil {
			table.Warnings = append(table.Warnings, *warn)
			metrics.DatasetWarnings.WithLabelValues(string(warn.Kind)).Inc()
			if len(table.Warnings) <= maxLoggedWarnings {
				logger.Warn("dataset row recovered",
					"row", warn.Row, "kind", warn.Kind, "column", warn.Column,
					"value", warn.Value, "reason", warn.Reason)
			}
		}
		if p != nil {
			table.Rows = append(table.Rows, *p)
		}
	}

	table.LoadedAt = l.now()
	table.LoadDuration = table.LoadedAt.Sub(start)

	metrics.DatasetLoads.WithLabelValues("ok").Inc()
	metrics.DatasetLoadDuration.Observe(table.LoadDuration.Seconds())
	metrics.DatasetRows.Set(float64(len(table.Rows)))
	span.SetAttributes(
		attribute.Int("dataset.rows", len(table.Rows)),
		attribute.Int("dataset.warnings", len(table.Warnings)),
	)
	logger.Info("dataset loaded",
		"rows", len(table.Rows),
		"warnings", len(table.Warnings),
		"duration", table.LoadDuration.String())

	l.publishLoaded(ctx, table)
	return table, nil
}

func (l *Loader) read(ctx context.Context, path string) ([]domain.RawFireRow, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDatasetRead)
	defer span.End()

	rows, err := l.source.ReadFires(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return rows, nil
}

func (l *Loader) publishLoaded(ctx context.Context, t *domain.FireTable) {
	if l.events == nil {
		return
	}
	ev := &domain.DashboardEvent{
		Type:      domain.EventDatasetLoaded,
		Timestamp: t.LoadedAt,
		Data: map[string]any{
			"rows":        len(t.Rows),
			"warnings":    len(t.Warnings),
			"duration_ms": t.LoadDuration.Milliseconds(),
		},
	}
	if err := l.events.PublishEvent(ctx, domain.EventDatasetLoaded, ev); err != nil {
		slog.Warn("publish dataset event", "error", err)
	}
}
