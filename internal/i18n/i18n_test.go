package i18n_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-curbside/internal/config"
	"github.com/tartampluch/go-curbside/internal/i18n"
)

// TestI18nIntegrity ensures that every translation key defined in config.go
// actually exists in each locale JSON file.
func TestI18nIntegrity(t *testing.T) {
	keysToCheck := []string{
		config.TKeyCatWaste,
		config.TKeyCatJunk,
		config.TKeyCatTree,
		config.TKeyCatRecycling,
		config.TKeyHolidayNote,
		config.TKeyFeedDesc,
	}

	definedKeys := make(map[string]bool)
	for _, k := range keysToCheck {
		definedKeys[k] = true
	}

	entries, err := os.ReadDir("locales")
	require.NoError(t, err, "Must list locale files")
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}

		content, err := os.ReadFile(filepath.Join("locales", name))
		require.NoErrorf(t, err, "Must load %s", name)

		var jsonMap map[string]interface{}
		err = json.Unmarshal(content, &jsonMap)
		require.NoErrorf(t, err, "%s must be valid JSON", name)

		// Verify consistency
		for key := range definedKeys {
			_, exists := jsonMap[key]
			assert.Truef(t, exists, "Key '%s' defined in config.go is missing in %s", key, name)
		}

		// Check for orphan keys (keys that exist in JSON but not in Go)
		for jsonKey := range jsonMap {
			if strings.HasPrefix(jsonKey, "_") {
				continue
			}
			_, exists := definedKeys[jsonKey]
			assert.Truef(t, exists, "Key '%s' exists in %s but is not defined in config.go", jsonKey, name)
		}
	}
}

func TestNew_LoadsSupportedLanguages(t *testing.T) {
	tr := i18n.New("en")
	require.NotNil(t, tr)

	assert.Contains(t, tr.SupportedLanguages, "en")
	assert.Contains(t, tr.SupportedLanguages, "es")
}

func TestGetMsg_Localization(t *testing.T) {
	en := i18n.New("en")
	es := i18n.New("es")

	enLabel := en.GetMsg(config.TKeyCatRecycling)
	esLabel := es.GetMsg(config.TKeyCatRecycling)

	assert.NotEqual(t, config.TKeyCatRecycling, enLabel, "Key must resolve, not echo")
	assert.NotEqual(t, config.TKeyCatRecycling, esLabel)
	assert.NotEqual(t, enLabel, esLabel, "Locales must differ for translated keys")
}

func TestGetMsg_UnknownLanguageFallsBack(t *testing.T) {
	tr := i18n.New("fr")

	got := tr.GetMsg(config.TKeyCatWaste)
	want := i18n.New("en").GetMsg(config.TKeyCatWaste)
	assert.Equal(t, want, got)
}

func TestGetMsg_MissingKey(t *testing.T) {
	tr := i18n.New("en")
	assert.Equal(t, "no_such_key", tr.GetMsg("no_such_key"))
}

func TestGetMsg_NilTranslator(t *testing.T) {
	var tr *i18n.Translator
	assert.Equal(t, "some_key", tr.GetMsg("some_key"))
}
