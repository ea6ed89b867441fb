package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	v := Init(filepath.Join(t.TempDir(), "missing.yaml"), nil)

	dirs := LoadDirsConfig(v)
	require.Equal(t, "run_data/data_bronze", dirs.Bronze)
	require.Equal(t, "run_data/data_silver", dirs.Silver)
	require.Equal(t, "run_data/data_gold", dirs.Gold)

	harvest := LoadHarvestConfig(v)
	require.Equal(t, 45*time.Second, harvest.PageTimeout)
	require.True(t, harvest.Headless)
	require.True(t, harvest.ExcludeExternalImages)
	require.Equal(t, 10000, harvest.MaxDescLength)
	require.Equal(t, []string{"Google Maps"}, harvest.DenySubstrings)

	synth := LoadSynthConfig(v)
	require.Equal(t, "vi-VN-NamMinhNeural", synth.Voice)
	require.Equal(t, 5*time.Second, synth.MinInterval)

	retry := LoadRetryConfig(v)
	require.Equal(t, 3, retry.MaxAttempts)
	require.Equal(t, 250*time.Millisecond, retry.BaseDelay)
	require.Equal(t, 5*time.Second, retry.MaxDelay)

	require.Equal(t, ":8080", LoadServerConfig(v).Addr)
}

func TestInitReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"synth:\n  voice: en-US-GuyNeural\n  min_interval: 2s\npublish:\n  bucket: localgaid-prod\n",
	), 0o600))

	v := Init(path, nil)

	synth := LoadSynthConfig(v)
	require.Equal(t, "en-US-GuyNeural", synth.Voice)
	require.Equal(t, 2*time.Second, synth.MinInterval)
	require.Equal(t, "localgaid-prod", LoadPublishConfig(v).Bucket)
	// Untouched keys keep their defaults.
	require.Equal(t, "run_data/data_gold", LoadDirsConfig(v).Gold)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GUIDE_PUBLISH_BUCKET", "localgaid-staging")
	v := Init(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Equal(t, "localgaid-staging", LoadPublishConfig(v).Bucket)
}
