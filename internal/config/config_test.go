package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.SuggestionModel, cfg.SuggestionModel)
	assert.Equal(t, def.WebPort, cfg.WebPort)
}

func TestLoad_PartialFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"suggestion_model": "gpt-4o", "web_port": 9999}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.SuggestionModel)
	assert.Equal(t, 9999, cfg.WebPort)
	// Unset fields fall back to defaults
	assert.Equal(t, DefaultConfig().SuggestionBaseURL, cfg.SuggestionBaseURL)
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestMerge_OverlayWins(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{
		SuggestionModel: "local-model",
		DBMaxOpenConns:  1,
		AllowedPaths:    []string{"/tmp/exports"},
	}

	merged := Merge(base, overlay)

	assert.Equal(t, "local-model", merged.SuggestionModel)
	assert.Equal(t, 1, merged.DBMaxOpenConns)
	assert.Equal(t, base.WebBind, merged.WebBind)
	assert.Equal(t, []string{"/tmp/exports"}, merged.AllowedPaths)
}

func TestMerge_ArraysDeduplicated(t *testing.T) {
	base := &Config{AllowedPaths: []string{"/a", "/b"}}
	overlay := &Config{AllowedPaths: []string{"/b", "/c", " "}}

	merged := Merge(base, overlay)

	assert.Equal(t, []string{"/a", "/b", "/c"}, merged.AllowedPaths)
}

func TestLoadWithRepo_RepoOverridesGlobal(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()
	workDir := filepath.Join(repoRoot, "sub", "dir")
	require.NoError(t, os.MkdirAll(workDir, 0755))

	globalCfg := `{"web_port": 8000, "suggestion_model": "global-model"}`
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalCfg), 0600))

	repoCfgDir := filepath.Join(repoRoot, ".retronotes")
	require.NoError(t, os.MkdirAll(repoCfgDir, 0755))
	repoCfg := `{"web_port": 9000}`
	require.NoError(t, os.WriteFile(filepath.Join(repoCfgDir, "config.json"), []byte(repoCfg), 0600))

	cfg, err := LoadWithRepo(globalDir, workDir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.WebPort, "repo config should win")
	assert.Equal(t, "global-model", cfg.SuggestionModel, "global fills unset fields")
}

func TestSuggestionAPIKey_FromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	assert.Equal(t, "sk-test-123", SuggestionAPIKey(t.TempDir()))
}

func TestSuggestionAPIKey_FromDotEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=sk-from-file\n"), 0600))

	assert.Equal(t, "sk-from-file", SuggestionAPIKey(dir))
}

func TestSuggestionAPIKey_Unset(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	assert.Equal(t, "", SuggestionAPIKey(t.TempDir()))
}
