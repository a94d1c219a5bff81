package audiosweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowlist_MatchModes(t *testing.T) {
	entries := map[string]string{
		"intro": "https://example.com/intro.mp3",
		"none":  "",
	}

	byValue := NewAllowlist(entries, MatchByValue)
	assert.True(t, byValue.Contains("https://example.com/intro.mp3"))
	assert.True(t, byValue.Contains(""))
	assert.False(t, byValue.Contains("intro"))

	byKey := NewAllowlist(entries, MatchByKey)
	assert.True(t, byKey.Contains("intro"))
	assert.True(t, byKey.Contains("none"))
	assert.False(t, byKey.Contains("https://example.com/intro.mp3"))
	assert.False(t, byKey.Contains(""))
}

func TestAllowlist_NilContainsNothing(t *testing.T) {
	var a *Allowlist
	assert.False(t, a.Contains("anything"))
	assert.Zero(t, a.Len())
	assert.Equal(t, MatchByValue, a.Mode())
	assert.Empty(t, a.Names())
}

func TestDefaultAllowlist(t *testing.T) {
	a := DefaultAllowlist(MatchByValue)

	assert.Equal(t, 13, a.Len())
	assert.Contains(t, a.Names(), "none")
	assert.True(t, a.Contains("https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607567/tiktok_audio/epic-cinematic.wav"))
	assert.False(t, a.Contains("epic-cinematic"))
}

func TestLoadAllowlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jingle: https://example.com/jingle.mp3\noutro: https://example.com/outro.mp3\n"), 0o644))

	a, err := LoadAllowlist(path, MatchByKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"jingle", "outro"}, a.Names())
	assert.True(t, a.Contains("jingle"))
	assert.Equal(t, MatchByKey, a.Mode())
}

func TestLoadAllowlist_Errors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("- a\n- b\n"), 0o644))

	for _, path := range []string{empty, invalid, filepath.Join(dir, "missing.yaml")} {
		_, err := LoadAllowlist(path, MatchByValue)
		require.Error(t, err, path)
		assert.Equal(t, ConfigurationError, KindOf(err), path)
	}
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("key")
	require.NoError(t, err)
	assert.Equal(t, MatchByKey, mode)

	mode, err = ParseMatchMode("value")
	require.NoError(t, err)
	assert.Equal(t, MatchByValue, mode)

	_, err = ParseMatchMode("url")
	assert.Equal(t, ConfigurationError, KindOf(err))
}
