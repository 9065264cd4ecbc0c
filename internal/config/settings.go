package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocationSettings is the default coordinate pair used for the cached feed.
// Coordinates are only forwarded to the upstream query; they never influence
// classification logic.
type LocationSettings struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// UpstreamSettings holds the three feature-layer endpoints consulted per
// computation run, one per pickup category.
type UpstreamSettings struct {
	WasteURL     string `yaml:"waste_url"`
	HeavyURL     string `yaml:"heavy_url"`
	RecyclingURL string `yaml:"recycling_url"`
}

// Settings is the top-level service configuration.
type Settings struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen"`

	// Language selects the locale used for ICS summaries ("en" or "es").
	Language string `yaml:"language"`

	// RefreshCron is a cron-style schedule string used to refresh the cached
	// default-location feed.
	RefreshCron string `yaml:"refresh"`

	// WindowDays is the default number of future days to compute.
	WindowDays int `yaml:"window_days"`

	// Location is the default coordinate pair for the cached feed.
	Location LocationSettings `yaml:"location"`

	// Upstream lists the per-category feature-layer endpoints.
	Upstream UpstreamSettings `yaml:"upstream"`

	// ExtraHolidays is a list of additional YYYY-MM-DD dates flagged as
	// possible holidays, on top of the observed federal holidays. Operators
	// use it to mirror the municipality's published collection-holiday list.
	ExtraHolidays []string `yaml:"extra_holidays"`
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Listen:      DefaultListen,
		Language:    DefaultLanguage,
		RefreshCron: DefaultRefreshCron,
		WindowDays:  DefaultWindowDays,
		Location: LocationSettings{
			Latitude:  29.7604,
			Longitude: -95.3698,
		},
		Upstream: UpstreamSettings{
			WasteURL:     "https://mycity.example.gov/arcgis/rest/services/SWD/GarbageDay/MapServer/0",
			HeavyURL:     "https://mycity.example.gov/arcgis/rest/services/SWD/HeavyTrash/MapServer/0",
			RecyclingURL: "https://mycity.example.gov/arcgis/rest/services/SWD/Recycling/MapServer/0",
		},
		ExtraHolidays: []string{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled settings files still behave correctly.
func (s *Settings) Normalize() {
	if s.Listen == "" {
		s.Listen = DefaultListen
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.RefreshCron == "" {
		s.RefreshCron = DefaultRefreshCron
	}
	if s.WindowDays <= 0 {
		s.WindowDays = DefaultWindowDays
	}
	if s.WindowDays > MaxWindowDays {
		s.WindowDays = MaxWindowDays
	}
	if s.ExtraHolidays == nil {
		s.ExtraHolidays = []string{}
	}
}

// LoadSettings loads configuration from the given YAML path.
//
// If the file does not exist, a default settings file is written (0600) and
// the defaults are returned, so a first run produces an editable template.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrSettingsPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s := DefaultSettings()
			if err := SaveSettings(path, s); err != nil {
				return s, err
			}
			return s, nil
		}
		return nil, err
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.Normalize()

	return &s, nil
}

// SaveSettings writes the given configuration to the specified path,
// atomically via a temp file + rename, with 0600 permissions.
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPath)
	}
	if s == nil {
		return errors.New(ErrSettingsNil)
	}

	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".curbside-settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
