package place

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bachdinh.json")
		payload := `{"name": "Bach Dinh", "location": "10.3460, 107.0743", "urls": ["https://example.com/a", "https://example.com/b"]}`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "Bach Dinh", cfg.Name)
		require.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, cfg.URLs)

		lat, lon, err := cfg.Coordinates()
		require.NoError(t, err)
		require.InDelta(t, 10.3460, lat, 1e-9)
		require.InDelta(t, 107.0743, lon, 1e-9)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

func TestPlaceConfigValidate(t *testing.T) {
	valid := PlaceConfig{Name: "x", Location: "1.0, 2.0", URLs: []string{"https://example.com"}}
	require.NoError(t, valid.Validate())

	cases := map[string]PlaceConfig{
		"empty name":        {Location: "1.0, 2.0", URLs: []string{"https://example.com"}},
		"no urls":           {Name: "x", Location: "1.0, 2.0"},
		"one-part location": {Name: "x", Location: "1.0", URLs: []string{"https://example.com"}},
		"three parts":       {Name: "x", Location: "1, 2, 3", URLs: []string{"https://example.com"}},
		"non-numeric":       {Name: "x", Location: "north, south", URLs: []string{"https://example.com"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, cfg.Validate())
		})
	}
}

func TestTierExtension(t *testing.T) {
	bronze := PlaceDataBronze{
		Name:      "Bach Dinh",
		Latitude:  10.346,
		Longitude: 107.074,
		Content:   "https://example.com\nsome text\n\n\n",
		Images:    []string{"https://example.com/1.jpg"},
	}

	silver := WithScript(bronze, "# Intro\nWelcome.")
	require.Equal(t, bronze, silver.PlaceDataBronze)
	require.Equal(t, "# Intro\nWelcome.", silver.Script)

	guides := []AudioGuide{{Title: "Intro", FullSubtitle: "Welcome.", AudioURL: "01_Intro.mp3", DurationSeconds: 12, SubtitleURL: "01_Intro.srt"}}
	gold := WithAudioGuides(silver, guides)
	require.Equal(t, silver, gold.PlaceDataSilver)
	require.Equal(t, guides, gold.AudioGuides)

	// Extending must not touch the prior tier.
	require.Equal(t, "https://example.com\nsome text\n\n\n", bronze.Content)
}
