package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client against the upstream GIS service.
var UserAgent = "Go-Curbside/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const AppName = "Go Curbside"

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for the settings file.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion     = "version"
	FlagDebug       = "debug"
	FlagConfig      = "config"
	FlagDescVersion = "Show application version and exit"
	FlagDescDebug   = "Enable debug logging"
	FlagDescConfig  = "Path to the YAML settings file"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultListen      = "127.0.0.1:8080"
	DefaultLanguage    = "en"
	DefaultWindowDays  = 60
	MaxWindowDays      = 366
	DefaultRefreshCron = "0 */6 * * *"
	DefaultConfigFile  = "curbside.yaml"
)

// -----------------------------------------------------------------------------
// Upstream Record Grammar
// -----------------------------------------------------------------------------

const (
	// AttrServiceDay is the attribute field consulted on every upstream layer.
	AttrServiceDay = "SERVICE_DAY"

	// HeavySeparator splits the "<ordinal-digit> <weekday-name>" composite.
	HeavySeparator = " "

	// RecyclingSeparator splits the "<weekday-name>-<suffix>" composite.
	// Suffix present selects odd recycling weeks; absence selects even weeks.
	RecyclingSeparator = "-"
)

// -----------------------------------------------------------------------------
// Upstream Query (ArcGIS feature layer)
// -----------------------------------------------------------------------------

const (
	QueryPathSuffix    = "/query"
	ParamGeometry      = "geometry"
	ParamGeometryType  = "geometryType"
	ParamInSR          = "inSR"
	ParamSpatialRel    = "spatialRel"
	ParamOutFields     = "outFields"
	ParamReturnGeom    = "returnGeometry"
	ParamFormat        = "f"
	GeometryTypePoint  = "esriGeometryPoint"
	SpatialRelContains = "esriSpatialRelIntersects"
	SRIDWGS84          = "4326"
	OutFieldsAll       = "*"
	ReturnGeomFalse    = "false"
	FormatJSON         = "json"

	// FormatPointGeometry renders "lng,lat" for point queries.
	FormatPointGeometry = "%f,%f"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Curbside//Engine//EN"
	ICalCalName = "Pickup Schedule"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "gocurbside"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropDescription = "DESCRIPTION"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropXWRCalDesc  = "X-WR-CALDESC"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	DefaultICalRefresh = 6 * time.Hour

	// StubVCalendar is the minimal valid iCalendar object used when no events exist
	// in the window. Returning it keeps subscribed clients from flagging the feed.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	// FormatUID yields "<date>-<category>@<domain>" per event.
	FormatUID = "%s-%s@%s"
)

// -----------------------------------------------------------------------------
// Data Formats
// -----------------------------------------------------------------------------

// DateFormatDay is the civil-date wire format (YYYY-MM-DD).
const DateFormatDay = "2006-01-02"

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 15 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 4 * 1024 * 1024 // 4MB; attribute records are tiny
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"

	RouteSchedule    = "/v1/schedule"
	RouteScheduleICS = "/v1/schedule.ics"
	RouteFeed        = "/calendar.ics"
	RouteHealth      = "/healthz"
)

// -----------------------------------------------------------------------------
// HTTP Query Parameters
// -----------------------------------------------------------------------------

const (
	QueryParamLat  = "lat"
	QueryParamLng  = "lng"
	QueryParamDays = "days"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrSettingsPath   = "configuration error: settings path is empty"
	ErrSettingsNil    = "configuration error: settings are nil"
	ErrFetcherMissing = "internal error: record fetcher is not initialized"
	ErrLayerURLEmpty  = "configuration error: upstream layer URL is empty"
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrListenRequired = "listen address is required"
	ErrInvalidURL     = "invalid URL structure"
	ErrProtocol       = "unsupported protocol scheme (http/https only)"
	ErrRecordDecode   = "failed to decode upstream record"
	ErrICalEncode     = "failed to encode iCalendar data"
	ErrUpstream       = "upstream schedule source unavailable"
	ErrAppFailed      = "application failed unexpectedly"
	ErrWriteResp      = "failed to write response body"
	ErrCronSchedule   = "invalid refresh cron expression"
	ErrLocalesAccess  = "failed to access embedded locales"
	ErrLocaleLoad     = "failed to load locale file"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgBadGateway   = "Upstream schedule source unavailable"
	HTTPMsgBadLocation  = "Query parameters lat and lng are required"
	HTTPMsgHealthy      = "ok"
)

// -----------------------------------------------------------------------------
// Fallbacks (used when no localizer is wired)
// -----------------------------------------------------------------------------

const (
	FallbackLabelWaste     = "Garbage pickup"
	FallbackLabelJunk      = "Junk waste pickup"
	FallbackLabelTree      = "Tree waste pickup"
	FallbackLabelRecycling = "Recycling pickup"
	FallbackHolidayNote    = "Possible holiday; collection may be delayed."
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyCatWaste     = "cat_waste"
	TKeyCatJunk      = "cat_junk"
	TKeyCatTree      = "cat_tree"
	TKeyCatRecycling = "cat_recycling"
	TKeyHolidayNote  = "holiday_note"
	TKeyFeedDesc     = "feed_description"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgComputeStarted = "Schedule computation started"
	MsgComputeDone    = "Schedule computation successful"
	MsgRecordMissing  = "Upstream record missing or malformed, rule degraded"
	MsgRecordFetchErr = "Upstream record fetch failed, rule degraded"
	MsgHolidaySkip    = "Skipping malformed holiday date"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Feed cache updated"
	MsgFeedRefresh    = "Refreshing default-location feed"
	MsgFeedRefreshErr = "Feed refresh failed; keeping previous feed"
	MsgCronStarted    = "Feed refresh schedule registered"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyListen    = "listen"
	LogKeyLat       = "lat"
	LogKeyLng       = "lng"
	LogKeyDays      = "days"
	LogKeyCategory  = "category"
	LogKeyDate      = "date"
	LogKeyCron      = "cron"
	LogKeyEvents    = "events"
	LogKeyRecords   = "records_ok"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine  = "engine"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompWorker  = "worker"
	CompMain    = "main"
	CompI18n    = "i18n"
)
