package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoainam183/GR/pkg/extract"
	"github.com/hoainam183/GR/pkg/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, store.DefaultDocument, cfg.Document.Name)
	assert.Equal(t, store.DefaultVersion, cfg.Document.Version)
	assert.Equal(t, extract.DefaultPointSplitThreshold, cfg.Chunking.PointSplitThreshold)
	assert.Equal(t, "quy_che_rag_data.json", cfg.Output.JSONPath)
	assert.Empty(t, cfg.Output.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quyche.yaml", `
document:
  version: "QĐ 1234"
chunking:
  point_split_threshold: 2000
  taxonomy_path: taxonomy.yaml
output:
  sqlite_path: /tmp/chunks.db
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, store.DefaultDocument, cfg.Document.Name, "unset fields keep defaults")
	assert.Equal(t, "QĐ 1234", cfg.Document.Version)
	assert.Equal(t, 2000, cfg.Chunking.PointSplitThreshold)
	assert.Equal(t, filepath.Join(dir, "taxonomy.yaml"), cfg.Chunking.TaxonomyPath)
	assert.Equal(t, "/tmp/chunks.db", cfg.Output.SQLitePath)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quyche.yaml", "chunking:\n  point_split_threshold: 2000\n")

	t.Setenv("QUYCHE_POINT_SPLIT_THRESHOLD", "300")
	t.Setenv("QUYCHE_OUTPUT", "out.json")
	t.Setenv("QUYCHE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Chunking.PointSplitThreshold)
	assert.Equal(t, "out.json", cfg.Output.JSONPath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := writeFile(t, dir, "bad.yaml", "chunking: [")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config file")

	zero := writeFile(t, dir, "zero.yaml", "chunking:\n  point_split_threshold: 0\n")
	_, err = Load(zero)
	assert.ErrorContains(t, err, "point_split_threshold")

	t.Setenv("QUYCHE_POINT_SPLIT_THRESHOLD", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "QUYCHE_POINT_SPLIT_THRESHOLD")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Chunking.PointSplitThreshold = -1 }},
		{"empty document", func(c *Config) { c.Document.Name = " " }},
		{"empty output", func(c *Config) { c.Output.JSONPath = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadEnvFile(filepath.Join(dir, "absent.env")))

	path := writeFile(t, dir, "test.env", "QUYCHE_TEST_DOTENV=from-file\n")
	t.Setenv("QUYCHE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("QUYCHE_TEST_DOTENV"))
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("QUYCHE_TEST_DOTENV"))
}

func TestConfig_Taxonomy(t *testing.T) {
	cfg := DefaultConfig()
	tax, err := cfg.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, extract.DefaultTaxonomy().DefaultAudience, tax.DefaultAudience)

	cfg.Chunking.TaxonomyPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Taxonomy()
	assert.Error(t, err)
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "", ResolveRelativePath("/etc/quyche.yaml", ""))
	assert.Equal(t, "/abs/t.yaml", ResolveRelativePath("/etc/quyche.yaml", "/abs/t.yaml"))
	assert.Equal(t, filepath.Join("/etc", "t.yaml"), ResolveRelativePath("/etc/quyche.yaml", "t.yaml"))
}
