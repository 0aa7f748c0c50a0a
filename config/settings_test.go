package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSettingsRequireSemesters(t *testing.T) {
	s := DefaultSettings()
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err))

	s.Semesters = map[string]string{"2024-2025-200": "courses_2024_2025_200"}
	assert.NoError(t, s.Validate())
}

func TestLoadSettingsFromFile(t *testing.T) {
	path := writeFile(t, "courserec.yaml", `
engine:
  timeout: 5s
  max_retries: 2
catalog:
  source: sqlite
  sqlite_path: /data/courses.db
embedding:
  backend: hash
  dimension: 128
semesters:
  2024-2025-200: courses_2024_2025_200
`)
	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, s.Engine.Timeout)
	assert.Equal(t, 2, s.Engine.MaxRetries)
	assert.Equal(t, 10000, s.Engine.CatalogLimit)
	assert.Equal(t, "/data/courses.db", s.Catalog.SQLitePath)
	assert.Equal(t, 128, s.Embedding.Dimension)
	assert.Equal(t, "memory", s.Index.Backend)
	assert.Equal(t, map[string]string{"2024-2025-200": "courses_2024_2025_200"}, s.Semesters)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	path := writeFile(t, "courserec.yaml", `
semesters:
  2024-2025-200: courses_2024_2025_200
`)
	t.Setenv("COURSEREC_ENGINE__TIMEOUT", "3s")
	t.Setenv("COURSEREC_ENGINE__BLACKLIST", "234114, 0104031")
	t.Setenv("COURSEREC_LOG__LEVEL", "debug")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, s.Engine.Timeout)
	assert.Equal(t, []string{"234114", "0104031"}, s.Engine.Blacklist)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadSettingsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"gemini without api key", "embedding: {backend: gemini}\nsemesters: {s: c}\n"},
		{"milvus without address", "index: {backend: milvus}\nsemesters: {s: c}\n"},
		{"unknown catalog source", "catalog: {source: postgres}\nsemesters: {s: c}\n"},
		{"feast without address", "ratings: {source: feast}\nsemesters: {s: c}\n"},
		{"no semesters", "engine: {timeout: 1s}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeFile(t, "c.yaml", tt.yaml))
			require.Error(t, err)
			assert.True(t, core.IsConfiguration(err))
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "engine.max_retries", envTransform("COURSEREC_ENGINE__MAX_RETRIES"))
	assert.Equal(t, "pipeline_file", envTransform("COURSEREC_PIPELINE_FILE"))
	assert.Equal(t, "", envTransform("COURSEREC_CONFIG"))
}
