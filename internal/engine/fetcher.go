package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tartampluch/go-curbside/internal/config"
)

// RecordFetcher defines the contract for retrieving one raw schedule record
// from an upstream feature layer for a coordinate pair.
// This interface allows for mocking in tests and decoupling from the network layer.
type RecordFetcher interface {
	Fetch(ctx context.Context, layerURL string, lat, lng float64) (io.ReadCloser, error)
}

// HTTPFetcher implements RecordFetcher against an ArcGIS-style feature
// layer using the standard net/http library.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a new instance of HTTPFetcher with configured timeouts.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
	}
}

// Fetch issues a point query against the layer and returns the raw JSON
// response body. The coordinate pair is consumed only to construct the
// query; it plays no role in classification.
// It enforces a maximum response size limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, layerURL string, lat, lng float64) (io.ReadCloser, error) {
	u, err := url.Parse(layerURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}

	// Security check: ensure strictly HTTP or HTTPS.
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + config.QueryPathSuffix

	q := u.Query()
	q.Set(config.ParamGeometry, fmt.Sprintf(config.FormatPointGeometry, lng, lat))
	q.Set(config.ParamGeometryType, config.GeometryTypePoint)
	q.Set(config.ParamInSR, config.SRIDWGS84)
	q.Set(config.ParamSpatialRel, config.SpatialRelContains)
	q.Set(config.ParamOutFields, config.OutFieldsAll)
	q.Set(config.ParamReturnGeom, config.ReturnGeomFalse)
	q.Set(config.ParamFormat, config.FormatJSON)
	u.RawQuery = q.Encode()

	// Log without the query string; it carries the caller's coordinates.
	safeURL := u.Scheme + "://" + u.Host + u.Path

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, safeURL),
	)

	log.Debug("Querying upstream layer")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error during fetch: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close() // Ensure we don't leak resources on error.
		log.Warn("Server returned error status",
			slog.Int(config.LogKeyStatus, resp.StatusCode),
		)
		return nil, fmt.Errorf("server returned unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Return a ReadCloser that limits the number of bytes read to protect against large payloads.
	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// limitedReadCloser wraps an io.Reader (Limited) and the original io.Closer.
// This ensures we can close the network connection properly while limiting the read size.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	return l.Reader.Read(p)
}

func (l *limitedReadCloser) Close() error {
	return l.Closer.Close()
}
