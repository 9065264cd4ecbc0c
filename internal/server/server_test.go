package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-curbside/internal/config"
	"github.com/tartampluch/go-curbside/internal/engine"
)

// -----------------------------------------------------------------------------
// Test Fixtures
// -----------------------------------------------------------------------------

// stubFetcher serves canned upstream bodies keyed by layer URL.
type stubFetcher struct {
	bodies map[string]string
	err    error
}

func (f *stubFetcher) Fetch(ctx context.Context, layerURL string, lat, lng float64) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.bodies[layerURL])), nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func record(serviceDay string) string {
	return `{"features":[{"attributes":{"SERVICE_DAY":"` + serviceDay + `"}}]}`
}

// newTestServer wires a ScheduleServer around a stub fetcher and a fixed
// clock pinned to 2024-01-01.
func newTestServer(fetcher engine.RecordFetcher) *ScheduleServer {
	settings := config.DefaultSettings()
	settings.Upstream = config.UpstreamSettings{
		WasteURL:     "https://gis.test/waste/0",
		HeavyURL:     "https://gis.test/heavy/0",
		RecyclingURL: "https://gis.test/recycling/0",
	}
	settings.WindowDays = 14

	gen := &engine.Generator{
		Clock:    fixedClock{t: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		Fetcher:  fetcher,
		Holidays: engine.NewHolidaySet(nil),
	}
	return NewScheduleServer(settings, gen, nil)
}

func workingFetcher() *stubFetcher {
	return &stubFetcher{bodies: map[string]string{
		"https://gis.test/waste/0":     record("Wednesday"),
		"https://gis.test/heavy/0":     record("2 Monday"),
		"https://gis.test/recycling/0": record("Friday"),
	}}
}

// -----------------------------------------------------------------------------
// JSON Endpoint
// -----------------------------------------------------------------------------

func TestHandleSchedule_Success(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?lat=29.76&lng=-95.37", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))

	var got scheduleJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	require.NotNil(t, got.Rules.WasteDay)
	assert.Equal(t, "Wednesday", *got.Rules.WasteDay)
	require.NotNil(t, got.Rules.HeavyWeekOfMonth)
	assert.Equal(t, 2, *got.Rules.HeavyWeekOfMonth)
	require.NotNil(t, got.Rules.RecyclingOnEvenWeeks)
	assert.True(t, *got.Rules.RecyclingOnEvenWeeks)

	require.Len(t, got.Events, 4)
	assert.Equal(t, "2024-01-03", got.Events[0].Date)
	assert.Equal(t, []string{"waste"}, got.Events[0].Categories)
	assert.Equal(t, "2024-01-08", got.Events[1].Date)
	assert.Equal(t, []string{"tree"}, got.Events[1].Categories)
	assert.Equal(t, "2024-01-12", got.Events[3].Date)
	assert.Equal(t, []string{"recycling"}, got.Events[3].Categories)
}

func TestHandleSchedule_UnsetRulesAreNull(t *testing.T) {
	fetcher := workingFetcher()
	fetcher.bodies["https://gis.test/heavy/0"] = `{"features":[]}`

	srv := newTestServer(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?lat=29.76&lng=-95.37", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	var got scheduleJSON
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&got))

	assert.Nil(t, got.Rules.HeavyDay, "Degraded rules serialize as null")
	assert.Nil(t, got.Rules.HeavyWeekOfMonth)
	assert.NotNil(t, got.Rules.WasteDay)
}

func TestHandleSchedule_MissingCoordinates(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandleSchedule_UpstreamDown(t *testing.T) {
	srv := newTestServer(&stubFetcher{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?lat=29.76&lng=-95.37", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Result().StatusCode)
}

func TestHandleSchedule_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodPost, "/v1/schedule?lat=1&lng=2", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
}

func TestHandleSchedule_DaysParameter(t *testing.T) {
	srv := newTestServer(workingFetcher())

	// A 3-day window covers only the Jan 3 waste pickup.
	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?lat=29.76&lng=-95.37&days=3", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	var got scheduleJSON
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&got))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "2024-01-03", got.Events[0].Date)
}

func TestHandleSchedule_ZeroDays(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?lat=29.76&lng=-95.37&days=0", nil)
	w := httptest.NewRecorder()
	srv.handleSchedule(w, req)

	var got scheduleJSON
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&got))
	assert.Empty(t, got.Events, "Zero days degrades to an empty sequence, not an error")
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

// -----------------------------------------------------------------------------
// ICS Endpoint
// -----------------------------------------------------------------------------

func TestHandleScheduleICS(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule.ics?lat=29.76&lng=-95.37", nil)
	w := httptest.NewRecorder()
	srv.handleScheduleICS(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
	assert.Contains(t, string(body), "2024-01-08-tree@gocurbside")
}

// -----------------------------------------------------------------------------
// Cached Feed (Unit Tests, White-Box Handler Logic)
// -----------------------------------------------------------------------------

// TestFeed_ServingContent verifies that the handler correctly writes the
// standard HTTP headers and body content when data is available.
func TestFeed_ServingContent(t *testing.T) {
	srv := newTestServer(workingFetcher())
	expectedICS := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR")

	// Pre-load data into the atomic cache
	srv.Update(expectedICS)

	req := httptest.NewRequest(http.MethodGet, "/calendar.ics", nil)
	w := httptest.NewRecorder()
	srv.handleFeedRequest(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, expectedICS, body)
}

// TestFeed_Caching verifies that the server respects ETag headers
// (If-None-Match) and returns 304 Not Modified to save bandwidth.
func TestFeed_Caching(t *testing.T) {
	srv := newTestServer(workingFetcher())
	srv.Update([]byte("DATA_VERSION_1"))

	// Step 1: Initial Request to get the ETag
	req1 := httptest.NewRequest(http.MethodGet, "/calendar.ics", nil)
	w1 := httptest.NewRecorder()
	srv.handleFeedRequest(w1, req1)

	etag := w1.Result().Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag, "Server must provide an ETag")

	// Step 2: Second Request providing the known ETag
	req2 := httptest.NewRequest(http.MethodGet, "/calendar.ics", nil)
	req2.Header.Set(config.HeaderIfNoneMatch, etag)
	w2 := httptest.NewRecorder()
	srv.handleFeedRequest(w2, req2)

	resp2 := w2.Result()
	defer func() { _ = resp2.Body.Close() }()

	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)

	body, _ := io.ReadAll(resp2.Body)
	assert.Empty(t, body, "304 responses carry no body")
}

func TestFeed_NotReady(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodGet, "/calendar.ics", nil)
	w := httptest.NewRecorder()
	srv.handleFeedRequest(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
}

func TestFeed_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(workingFetcher())
	srv.Update([]byte("data"))

	req := httptest.NewRequest(http.MethodDelete, "/calendar.ics", nil)
	w := httptest.NewRecorder()
	srv.handleFeedRequest(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
}

func TestFeed_HeadOmitsBody(t *testing.T) {
	srv := newTestServer(workingFetcher())
	srv.Update([]byte("FEED_DATA"))

	req := httptest.NewRequest(http.MethodHead, "/calendar.ics", nil)
	w := httptest.NewRecorder()
	srv.handleFeedRequest(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

// TestRefreshFeed verifies the cron-driven path end to end: compute, render,
// and atomically publish the default-location feed.
func TestRefreshFeed(t *testing.T) {
	srv := newTestServer(workingFetcher())

	require.NoError(t, srv.RefreshFeed(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/calendar.ics", nil)
	w := httptest.NewRecorder()
	srv.handleFeedRequest(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
}

func TestRefreshFeed_UpstreamDown(t *testing.T) {
	srv := newTestServer(&stubFetcher{err: errors.New("connection refused")})

	err := srv.RefreshFeed(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrUpstreamUnavailable)
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(workingFetcher())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
