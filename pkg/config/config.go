package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI and the server need to build a library.
type Config struct {
	DataDir string `yaml:"data_dir"` // Base directory for local state (default ~/.kyys)

	KV    KVConfig    `yaml:"kv"`
	Blobs BlobsConfig `yaml:"blobs"`

	Images ImagesConfig `yaml:"images"`
	Server ServerConfig `yaml:"server"`
	Remote RemoteConfig `yaml:"remote"`

	LogLevel    string `yaml:"log_level"`    // debug, info, warn or error (default info)
	MangaDexURL string `yaml:"mangadex_url"` // Catalog API base URL
	OutputDir   string `yaml:"output_dir"`   // Where exports are written (default ~/Downloads)
}

type KVConfig struct {
	Backend string `yaml:"backend"` // duckdb, badger or memory (default duckdb)
	Path    string `yaml:"path"`    // File (duckdb) or directory (badger)
	Quota   int64  `yaml:"quota"`   // Byte cap, negative disables (default 5 MiB)
}

type BlobsConfig struct {
	Path   string `yaml:"path"`   // SQLite file (default <data_dir>/images.db)
	Quota  int64  `yaml:"quota"`  // Byte cap, zero means unlimited
	Inline bool   `yaml:"inline"` // Embed images in the key-value store instead
}

type ImagesConfig struct {
	CoverMaxWidth  int `yaml:"cover_max_width"`
	CoverMaxHeight int `yaml:"cover_max_height"`
	PageMaxWidth   int `yaml:"page_max_width"`
	PageMaxHeight  int `yaml:"page_max_height"`
	Quality        int `yaml:"quality"`
}

type ServerConfig struct {
	Addr      string  `yaml:"addr"`       // Listen address (default ":3000")
	Origin    string  `yaml:"origin"`     // Public URL object URLs are built on
	Token     string  `yaml:"-"`          // Bearer token for /series/*, env only
	RateLimit float64 `yaml:"rate_limit"` // Requests per second per client (default 10)
}

type RemoteConfig struct {
	Backend string `yaml:"backend"` // dir or gcs (default dir)
	Dir     string `yaml:"dir"`     // Root for the dir backend
	Bucket  string `yaml:"bucket"`  // GCS bucket name
	URL     string `yaml:"url"`     // Base URL of a remote kyys server
	Token   string `yaml:"-"`       // Bearer token sent to the remote server
}

// DefaultPath is ~/.kyys/config.yaml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".kyys", "config.yaml")
}

// Load reads the YAML file at path when it exists, then a .env file in the
// working directory, then KYYS_* environment variables. Missing files are not
// an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"KYYS_DATA_DIR":              &c.DataDir,
		"KYYS_KV_BACKEND":            &c.KV.Backend,
		"KYYS_KV_PATH":               &c.KV.Path,
		"KYYS_BLOB_PATH":             &c.Blobs.Path,
		"KYYS_ADDR":                  &c.Server.Addr,
		"KYYS_ORIGIN":                &c.Server.Origin,
		"KYYS_BLOB_READ_WRITE_TOKEN": &c.Server.Token,
		"KYYS_REMOTE_BACKEND":        &c.Remote.Backend,
		"KYYS_REMOTE_DIR":            &c.Remote.Dir,
		"KYYS_REMOTE_BUCKET":         &c.Remote.Bucket,
		"KYYS_BLOB_URL":              &c.Remote.URL,
		"KYYS_LOG_LEVEL":             &c.LogLevel,
		"KYYS_MANGADEX_URL":          &c.MangaDexURL,
		"KYYS_OUTPUT_DIR":            &c.OutputDir,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int64{
		"KYYS_KV_QUOTA":   &c.KV.Quota,
		"KYYS_BLOB_QUOTA": &c.Blobs.Quota,
	}
	for name, dst := range ints {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		*dst = n
	}

	if v := os.Getenv("KYYS_BLOB_INLINE"); v != "" {
		inline, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse KYYS_BLOB_INLINE: %w", err)
		}
		c.Blobs.Inline = inline
	}

	// The client sends the same token the server checks unless told otherwise.
	c.Remote.Token = os.Getenv("KYYS_REMOTE_TOKEN")
	if c.Remote.Token == "" {
		c.Remote.Token = c.Server.Token
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.DataDir == "" {
		homeDir, _ := os.UserHomeDir()
		c.DataDir = filepath.Join(homeDir, ".kyys")
	}
	if c.KV.Backend == "" {
		c.KV.Backend = "duckdb"
	}
	if c.KV.Path == "" {
		switch c.KV.Backend {
		case "badger":
			c.KV.Path = filepath.Join(c.DataDir, "kv")
		default:
			c.KV.Path = filepath.Join(c.DataDir, "library.duckdb")
		}
	}
	if c.KV.Quota == 0 {
		c.KV.Quota = 5 << 20
	}
	if c.Blobs.Path == "" {
		c.Blobs.Path = filepath.Join(c.DataDir, "images.db")
	}
	if c.Images.CoverMaxWidth == 0 {
		c.Images.CoverMaxWidth = 600
	}
	if c.Images.CoverMaxHeight == 0 {
		c.Images.CoverMaxHeight = 900
	}
	if c.Images.PageMaxWidth == 0 {
		c.Images.PageMaxWidth = 1400
	}
	if c.Images.PageMaxHeight == 0 {
		c.Images.PageMaxHeight = 2400
	}
	if c.Images.Quality == 0 {
		c.Images.Quality = 80
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.Origin == "" {
		c.Server.Origin = "http://localhost" + c.Server.Addr
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 10
	}
	if c.Remote.Backend == "" {
		c.Remote.Backend = "dir"
	}
	if c.Remote.Dir == "" {
		c.Remote.Dir = filepath.Join(c.DataDir, "remote")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MangaDexURL == "" {
		c.MangaDexURL = "https://api.mangadex.org"
	}
	if c.OutputDir == "" {
		homeDir, _ := os.UserHomeDir()
		c.OutputDir = filepath.Join(homeDir, "Downloads")
	}
}

// KVQuota returns the effective key-value quota, zero when disabled.
func (c *Config) KVQuota() int64 {
	if c.KV.Quota < 0 {
		return 0
	}
	return c.KV.Quota
}

// Save writes the file-backed part of the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
