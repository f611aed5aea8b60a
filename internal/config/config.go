package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the program configuration
type Config struct {
	AccountID         string   `yaml:"account_id"`
	OutputDir         string   `yaml:"output_dir"`
	AudioFormat       string   `yaml:"audio_format"`
	DownloaderPath    string   `yaml:"downloader_path"` // helper binary; empty disables the process strategy
	FFmpegDir         string   `yaml:"ffmpeg_dir"`      // location hint for the conversion tool
	StoreBackend      string   `yaml:"store_backend"`   // "sqlite" or "rest"
	StorePath         string   `yaml:"store_path"`      // sqlite database file
	StoreURL          string   `yaml:"store_url"`       // base URL of the REST quota store
	SearchAPIURL      string   `yaml:"search_api_url"`  // JSON search API used by the streaming strategy
	MetadataProviders []string `yaml:"metadata_providers"`
	EmbedLyrics       bool     `yaml:"embed_lyrics"`
	Verbose           bool     `yaml:"verbose"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		AccountID:         "default",
		OutputDir:         filepath.Join(homeDir(), "Music"),
		AudioFormat:       "m4a",
		DownloaderPath:    "yt-dlp",
		StoreBackend:      "sqlite",
		StorePath:         filepath.Join(homeDir(), ".local", "share", "tunegrab", "quota.db"),
		SearchAPIURL:      "https://yewtu.be",
		MetadataProviders: []string{"deezer", "itunes"},
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.OutputDir = ExpandHome(cfg.OutputDir)
	cfg.StorePath = ExpandHome(cfg.StorePath)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./tunegrab.yaml",
		"./tunegrab.yml",
		filepath.Join(home, ".config", "tunegrab", "config.yaml"),
		filepath.Join(home, ".config", "tunegrab", "config.yml"),
		filepath.Join(home, ".tunegrab.yaml"),
		filepath.Join(home, ".tunegrab.yml"),
	}

	for _, path := range locations {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "tunegrab", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "tunegrab", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("account_id cannot be empty")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	validFormats := []string{"mp3", "m4a", "opus", "flac", "wav", "aac"}
	isValid := false
	for _, format := range validFormats {
		if c.AudioFormat == format {
			isValid = true
			break
		}
	}
	if !isValid {
		return fmt.Errorf("unsupported audio format '%s', valid formats: %v", c.AudioFormat, validFormats)
	}

	switch c.StoreBackend {
	case "sqlite":
		if c.StorePath == "" {
			return fmt.Errorf("store_path is required when store_backend is sqlite")
		}
	case "rest":
		if c.StoreURL == "" {
			return fmt.Errorf("store_url is required when store_backend is rest")
		}
		if !strings.HasPrefix(c.StoreURL, "http://") && !strings.HasPrefix(c.StoreURL, "https://") {
			return fmt.Errorf("store_url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("unknown store_backend %q, valid backends: sqlite, rest", c.StoreBackend)
	}

	validProviders := map[string]bool{"deezer": true, "itunes": true, "musicbrainz": true}
	for _, p := range c.MetadataProviders {
		if !validProviders[p] {
			return fmt.Errorf("unknown metadata provider %q, valid providers: deezer, itunes, musicbrainz", p)
		}
	}

	return nil
}
