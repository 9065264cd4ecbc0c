package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-curbside/internal/config"
	"github.com/tartampluch/go-curbside/internal/engine"
)

// cacheItem stores the rendered default-location feed and its metadata for
// HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// ScheduleServer exposes the engine over HTTP: an on-demand JSON schedule
// endpoint, an on-demand ICS rendering, and a cached feed for the
// configured default location.
type ScheduleServer struct {
	// cache uses atomic.Pointer for lock-free reads. The feed is read
	// frequently by subscribed clients but updated only by the cron
	// refresher, so this avoids contention on the hot path.
	cache atomic.Pointer[cacheItem]

	Listen    string
	Generator *engine.Generator
	Messages  engine.Messages
	Settings  *config.Settings
}

// NewScheduleServer creates a new instance of the server.
func NewScheduleServer(settings *config.Settings, gen *engine.Generator, msgs engine.Messages) *ScheduleServer {
	return &ScheduleServer{
		Listen:    settings.Listen,
		Generator: gen,
		Messages:  msgs,
		Settings:  settings,
	}
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *ScheduleServer) Start(ctx context.Context) error {
	if s.Listen == "" {
		return errors.New(config.ErrListenRequired)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteSchedule, s.handleSchedule)
	mux.HandleFunc(config.RouteScheduleICS, s.handleScheduleICS)
	mux.HandleFunc(config.RouteFeed, s.handleFeedRequest)
	mux.HandleFunc(config.RouteHealth, s.handleHealth)

	srv := &http.Server{
		Addr:         s.Listen,
		Handler:      mux,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyListen, s.Listen,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// RefreshFeed recomputes the default-location schedule and atomically
// replaces the cached feed. The previous feed is kept on failure.
func (s *ScheduleServer) RefreshFeed(ctx context.Context) error {
	slog.Info(config.MsgFeedRefresh, config.LogKeyComponent, config.CompWorker)

	sch, err := s.Generator.RunCompute(ctx, s.computeConfig(
		s.Settings.Location.Latitude,
		s.Settings.Location.Longitude,
		s.Settings.WindowDays,
	))
	if err != nil {
		return err
	}

	data, err := engine.RenderICS(sch.Events, s.Generator.Clock.Now(), s.Messages)
	if err != nil {
		return err
	}

	s.Update(data)
	return nil
}

// Update atomically replaces the served feed content.
func (s *ScheduleServer) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	lastMod := time.Now().UTC().Format(http.TimeFormat)

	item := &cacheItem{
		data:         data,
		etag:         etag,
		lastModified: lastMod,
	}

	// Atomic store: concurrent readers see either the old or the new
	// complete item, never a partial state.
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// -----------------------------------------------------------------------------
// JSON envelope
// -----------------------------------------------------------------------------

// rulesJSON serializes PickupRules with nulls for unset fields.
type rulesJSON struct {
	WasteDay             *string `json:"wasteDay"`
	HeavyDay             *string `json:"heavyDay"`
	HeavyWeekOfMonth     *int    `json:"heavyWeekOfMonth"`
	RecyclingDay         *string `json:"recyclingDay"`
	RecyclingOnEvenWeeks *bool   `json:"recyclingOnEvenWeeks"`
}

type eventJSON struct {
	Date            string   `json:"date"`
	Categories      []string `json:"categories"`
	PossibleHoliday bool     `json:"possibleHoliday"`
}

type scheduleJSON struct {
	Rules  rulesJSON   `json:"rules"`
	Events []eventJSON `json:"events"`
}

func marshalSchedule(sch *engine.Schedule) scheduleJSON {
	out := scheduleJSON{Events: []eventJSON{}}

	r := sch.Rules
	if r.WasteSet {
		day := r.WasteDay.String()
		out.Rules.WasteDay = &day
	}
	if r.HeavySet {
		day := r.HeavyDay.String()
		week := r.HeavyWeek
		out.Rules.HeavyDay = &day
		out.Rules.HeavyWeekOfMonth = &week
	}
	if r.RecyclingSet {
		day := r.RecyclingDay.String()
		even := r.RecyclingEvenWeeks
		out.Rules.RecyclingDay = &day
		out.Rules.RecyclingOnEvenWeeks = &even
	}

	for _, e := range sch.Events {
		cats := make([]string, 0, len(e.Categories))
		for _, c := range e.Categories {
			cats = append(cats, string(c))
		}
		out.Events = append(out.Events, eventJSON{
			Date:            e.Date.Format(config.DateFormatDay),
			Categories:      cats,
			PossibleHoliday: e.PossibleHoliday,
		})
	}
	return out
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// handleSchedule computes a schedule for the requested coordinates and
// window and returns the JSON envelope.
func (s *ScheduleServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sch, ok := s.computeForRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	if err := json.NewEncoder(w).Encode(marshalSchedule(sch)); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// handleScheduleICS computes a schedule for the requested coordinates and
// window and returns it rendered as an iCalendar document.
func (s *ScheduleServer) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	sch, ok := s.computeForRequest(w, r)
	if !ok {
		return
	}

	data, err := engine.RenderICS(sch.Events, s.Generator.Clock.Now(), s.Messages)
	if err != nil {
		http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	if _, err := w.Write(data); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// computeForRequest parses query parameters, runs the engine, and writes
// the error response itself when the computation cannot be served.
func (s *ScheduleServer) computeForRequest(w http.ResponseWriter, r *http.Request) (*engine.Schedule, bool) {
	if r.Method != http.MethodGet {
		w.Header().Set(config.HeaderAllow, http.MethodGet)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return nil, false
	}

	lat, err1 := strconv.ParseFloat(r.URL.Query().Get(config.QueryParamLat), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get(config.QueryParamLng), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, config.HTTPMsgBadLocation, http.StatusBadRequest)
		return nil, false
	}

	days := s.Settings.WindowDays
	if v := r.URL.Query().Get(config.QueryParamDays); v != "" {
		// Unparseable window lengths fall back to the default rather
		// than erroring, matching the engine's degrade policy.
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	if days > config.MaxWindowDays {
		days = config.MaxWindowDays
	}

	sch, err := s.Generator.RunCompute(r.Context(), s.computeConfig(lat, lng, days))
	if err != nil {
		if errors.Is(err, engine.ErrUpstreamUnavailable) {
			http.Error(w, config.HTTPMsgBadGateway, http.StatusGatewayTimeout)
		} else {
			http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
		}
		return nil, false
	}
	return sch, true
}

// computeConfig binds the configured upstream layers to a compute request.
func (s *ScheduleServer) computeConfig(lat, lng float64, days int) engine.ComputeConfig {
	return engine.ComputeConfig{
		Latitude:     lat,
		Longitude:    lng,
		Days:         days,
		WasteURL:     s.Settings.Upstream.WasteURL,
		HeavyURL:     s.Settings.Upstream.HeavyURL,
		RecyclingURL: s.Settings.Upstream.RecyclingURL,
	}
}

// handleHealth is a minimal liveness probe.
func (s *ScheduleServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, config.HTTPMsgHealthy)
}

// handleFeedRequest serves the cached default-location ICS feed with HTTP
// caching support.
func (s *ScheduleServer) handleFeedRequest(w http.ResponseWriter, r *http.Request) {
	// 1. Method Validation
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	// 2. Load Data (Atomic / Lock-Free)
	item := s.cache.Load()

	// 3. Readiness Check
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	// 4. Set Response Headers
	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	// 5. Check Conditional Headers (Client Caching)
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				// If server content is not newer than client cache, return 304.
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	// 6. Serve Content
	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
