package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/go-curbside/internal/config"
)

// ErrUpstreamUnavailable is returned when every attempted upstream fetch
// failed, meaning no schedule data at all could be obtained for the run.
// Partial failures are not errors; they degrade individual rules instead.
var ErrUpstreamUnavailable = errors.New(config.ErrUpstream)

// ComputeConfig contains all parameters required to compute one schedule.
type ComputeConfig struct {
	Latitude  float64 // Location queried upstream; unused by classification
	Longitude float64
	Days      int // Window length; <= 0 yields an empty event sequence

	WasteURL     string // Feature layer for the weekly waste rule
	HeavyURL     string // Feature layer for the Nth-weekday heavy rule
	RecyclingURL string // Feature layer for the alternating-week recycling rule
}

// Schedule is the engine's output artifact: the normalized rules the run
// derived plus the filtered, chronologically ordered event sequence.
type Schedule struct {
	Rules  PickupRules
	Events []PickupEvent
}

// Generator is the core service responsible for fetching records and
// computing pickup schedules. Each run operates on its own freshly parsed
// rules and produces its own event sequence; there is no cross-run state.
type Generator struct {
	Clock    Clock         // Interface for time mocking.
	Fetcher  RecordFetcher // Interface for network abstraction.
	Holidays *HolidaySet   // Read-only holiday table, shared across runs.
}

// RunCompute executes the fetch, parse, and window-generation pipeline.
//
// The three upstream records are fetched concurrently; a record that fails
// to fetch or decode degrades its rule fields to unset rather than failing
// the run. Only when every attempted fetch fails does RunCompute return
// ErrUpstreamUnavailable, so the caller can surface a gateway error instead
// of an empty calendar.
func (g *Generator) RunCompute(ctx context.Context, cfg ComputeConfig) (*Schedule, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyLat, cfg.Latitude,
		config.LogKeyLng, cfg.Longitude,
	)
	log.Info(config.MsgComputeStarted, config.LogKeyDays, cfg.Days)

	if g.Fetcher == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}

	records := g.fetchRecords(ctx, cfg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if records.attempted > 0 && records.failed == records.attempted {
		return nil, ErrUpstreamUnavailable
	}

	rules := ParseRules(records.waste, records.heavy, records.recycling)
	classifier := Classifier{Rules: rules, Holidays: g.Holidays}

	today := civilDate(g.Clock.Now())
	events := classifier.Events(today, cfg.Days)

	log.Info(config.MsgComputeDone,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyRecords, records.attempted-records.failed),
			slog.Int(config.LogKeyEvents, len(events)),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)

	return &Schedule{Rules: rules, Events: events}, nil
}

// recordSet collects the per-category fetch results for one run.
type recordSet struct {
	waste     *ScheduleRecord
	heavy     *ScheduleRecord
	recycling *ScheduleRecord

	attempted int
	failed    int
}

// fetchRecords retrieves the three upstream records concurrently. The
// records may complete in any order; each failure is logged and leaves the
// corresponding record nil.
func (g *Generator) fetchRecords(ctx context.Context, cfg ComputeConfig) recordSet {
	type target struct {
		url  string
		dest **ScheduleRecord
	}

	var (
		rs recordSet
		mu sync.Mutex
		wg sync.WaitGroup
	)

	targets := []target{
		{cfg.WasteURL, &rs.waste},
		{cfg.HeavyURL, &rs.heavy},
		{cfg.RecyclingURL, &rs.recycling},
	}

	for _, t := range targets {
		if t.url == "" {
			// No layer configured for this category; the rule stays unset.
			slog.Debug(config.MsgRecordMissing,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyError, config.ErrLayerURLEmpty,
			)
			continue
		}

		rs.attempted++
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			rec, err := g.fetchRecord(ctx, t.url, cfg.Latitude, cfg.Longitude)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rs.failed++
				slog.Warn(config.MsgRecordFetchErr,
					config.LogKeyComponent, config.CompEngine,
					config.LogKeyURL, t.url,
					config.LogKeyError, err,
				)
				return
			}
			*t.dest = rec
		}(t)
	}

	wg.Wait()
	return rs
}

// fetchRecord retrieves and decodes a single upstream record.
func (g *Generator) fetchRecord(ctx context.Context, layerURL string, lat, lng float64) (*ScheduleRecord, error) {
	rc, err := g.Fetcher.Fetch(ctx, layerURL, lat, lng)
	if err != nil {
		return nil, err
	}
	// Best effort close. Errors closing a fully-read response body are rarely actionable.
	defer func() { _ = rc.Close() }()

	return DecodeRecord(rc)
}
