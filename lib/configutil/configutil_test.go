package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Query    string `json:"query"`
	MaxPages int    `json:"max_pages"`
	Token    string `json:"token"`
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigWithLocalOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "devscout.json5")

	err := os.WriteFile(base, []byte(`{
		// base settings
		query: "python developer",
		max_pages: 5,
	}`), 0600)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "devscout.local.json5"), []byte(`{
		token: "secret",
		max_pages: 2,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, "python developer", cfg.Query)
	require.Equal(t, 2, cfg.MaxPages)
	require.Equal(t, "secret", cfg.Token)
}
