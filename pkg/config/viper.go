// Package config initializes the application's configuration. It uses the
// Viper library to read settings from a config file and environment
// variables, and exposes typed per-subsystem loaders.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Init builds a Viper instance with defaults, config-file search paths, and
// GUIDE_-prefixed environment overrides. cfgFile, when non-empty, pins the
// config file explicitly. A missing config file is not fatal: defaults and
// environment variables carry a run on their own.
func Init(cfgFile string, logger *zap.Logger) *viper.Viper {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/guidectl/")
		v.AddConfigPath("$HOME/.guidectl")
	}

	setDefaults(v)

	v.SetEnvPrefix("GUIDE") // e.g. GUIDE_PUBLISH_BUCKET=localgaid-prod
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warn("config file not found; using defaults and environment variables")
		} else {
			logger.Error("error reading config file", zap.Error(err))
		}
	} else {
		logger.Info("using config file", zap.String("path", v.ConfigFileUsed()))
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dirs.bronze", "run_data/data_bronze")
	v.SetDefault("dirs.silver", "run_data/data_silver")
	v.SetDefault("dirs.gold", "run_data/data_gold")

	v.SetDefault("harvest.page_timeout", "45s")
	v.SetDefault("harvest.headless", true)
	v.SetDefault("harvest.exclude_external_images", true)
	v.SetDefault("harvest.relevance_min_score", 0)
	v.SetDefault("harvest.max_desc_length", 10000)
	v.SetDefault("harvest.deny_substrings", []string{"Google Maps"})

	v.SetDefault("script.model", "")
	v.SetDefault("script.max_tokens", 4096)
	v.SetDefault("script.temperature", 0.2)
	v.SetDefault("script.prompt_template", "prompts/narration.tmpl")

	v.SetDefault("synth.voice", "vi-VN-NamMinhNeural")
	v.SetDefault("synth.min_interval", "5s")

	v.SetDefault("publish.bucket", "localgaid-dev")
	v.SetDefault("publish.database_dsn", "")
	v.SetDefault("publish.project_id", "")
	v.SetDefault("publish.completion_topic", "")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "250ms")
	v.SetDefault("retry.max_delay", "5s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.development", false)
}

// DirsConfig names the three tier artifact roots.
type DirsConfig struct {
	Bronze string
	Silver string
	Gold   string
}

// LoadDirsConfig reads the tier directory settings.
func LoadDirsConfig(v *viper.Viper) DirsConfig {
	return DirsConfig{
		Bronze: v.GetString("dirs.bronze"),
		Silver: v.GetString("dirs.silver"),
		Gold:   v.GetString("dirs.gold"),
	}
}

// HarvestConfig controls the page harvester and image filter.
type HarvestConfig struct {
	PageTimeout           time.Duration
	Headless              bool
	ExcludeExternalImages bool
	RelevanceMinScore     int
	MaxDescLength         int
	DenySubstrings        []string
}

// LoadHarvestConfig reads the harvest settings.
func LoadHarvestConfig(v *viper.Viper) HarvestConfig {
	return HarvestConfig{
		PageTimeout:           v.GetDuration("harvest.page_timeout"),
		Headless:              v.GetBool("harvest.headless"),
		ExcludeExternalImages: v.GetBool("harvest.exclude_external_images"),
		RelevanceMinScore:     v.GetInt("harvest.relevance_min_score"),
		MaxDescLength:         v.GetInt("harvest.max_desc_length"),
		DenySubstrings:        v.GetStringSlice("harvest.deny_substrings"),
	}
}

// ScriptConfig controls narration script generation.
type ScriptConfig struct {
	APIKey         string
	Model          string
	MaxTokens      int
	Temperature    float64
	PromptTemplate string
}

// LoadScriptConfig reads the script generation settings. The API key comes
// from GUIDE_SCRIPT_API_KEY or the config file.
func LoadScriptConfig(v *viper.Viper) ScriptConfig {
	return ScriptConfig{
		APIKey:         v.GetString("script.api_key"),
		Model:          v.GetString("script.model"),
		MaxTokens:      v.GetInt("script.max_tokens"),
		Temperature:    v.GetFloat64("script.temperature"),
		PromptTemplate: v.GetString("script.prompt_template"),
	}
}

// SynthConfig controls audio synthesis.
type SynthConfig struct {
	Voice       string
	MinInterval time.Duration
	Token       string
}

// LoadSynthConfig reads the synthesis settings.
func LoadSynthConfig(v *viper.Viper) SynthConfig {
	return SynthConfig{
		Voice:       v.GetString("synth.voice"),
		MinInterval: v.GetDuration("synth.min_interval"),
		Token:       v.GetString("synth.token"),
	}
}

// PublishConfig controls object storage and database publishing.
type PublishConfig struct {
	Bucket          string
	DatabaseDSN     string
	ProjectID       string
	CompletionTopic string
}

// LoadPublishConfig reads the publish settings.
func LoadPublishConfig(v *viper.Viper) PublishConfig {
	return PublishConfig{
		Bucket:          v.GetString("publish.bucket"),
		DatabaseDSN:     v.GetString("publish.database_dsn"),
		ProjectID:       v.GetString("publish.project_id"),
		CompletionTopic: v.GetString("publish.completion_topic"),
	}
}

// RetryConfig controls the shared retry policy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// LoadRetryConfig reads the retry settings.
func LoadRetryConfig(v *viper.Viper) RetryConfig {
	return RetryConfig{
		MaxAttempts: v.GetInt("retry.max_attempts"),
		BaseDelay:   v.GetDuration("retry.base_delay"),
		MaxDelay:    v.GetDuration("retry.max_delay"),
	}
}

// ServerConfig controls the status server.
type ServerConfig struct {
	Addr string
}

// LoadServerConfig reads the status server settings.
func LoadServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{Addr: v.GetString("server.addr")}
}
