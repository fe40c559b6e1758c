package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sebastiantruijens/tmdb-tui/internal/catalog"
	"github.com/sebastiantruijens/tmdb-tui/internal/httpx"
	"github.com/sebastiantruijens/tmdb-tui/internal/tmdb"
)

const (
	// DefaultRateLimit stays well under TMDB's published request ceiling.
	DefaultRateLimit = 20.0
	fileName         = "config.yaml"
	appDir           = "tmdb-tui"
)

// DefaultRatings are the rating buckets offered by the filter control.
var DefaultRatings = []int{8, 7, 6}

// Config is the merged configuration. The YAML file is optional; every field
// has a default except the API key.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	WebURL  string `yaml:"web_url"`
	List    string `yaml:"list"`

	Timeout   time.Duration `yaml:"timeout"`
	RetryMax  int           `yaml:"retry_max"`
	RateLimit float64       `yaml:"rate_limit"`

	Ratings        []int `yaml:"ratings"`
	PrefetchMargin int   `yaml:"prefetch_margin"`

	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Error is a configuration problem tied to one field.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Path != "":
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	case e.Path != "":
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:        tmdb.DefaultBaseURL,
		WebURL:         tmdb.DefaultWebURL,
		List:           tmdb.DefaultList,
		Timeout:        httpx.DefaultTimeout,
		RetryMax:       httpx.DefaultRetryMax,
		RateLimit:      DefaultRateLimit,
		Ratings:        append([]int(nil), DefaultRatings...),
		PrefetchMargin: catalog.DefaultPrefetchMargin,
		LogLevel:       "info",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/tmdb-tui/config.yaml (or the platform
// equivalent). It returns "" if no config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, fileName)
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is only an error when explicit is
// true (the user named it on the command line).
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, &Error{Path: path, Err: err}
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, &Error{Path: path, Err: err}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := GetEnv[string]("TMDB_API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := GetEnv[string]("TMDB_LIST"); ok {
		c.List = v
	}
	if v, ok := GetEnv[string]("TMDB_LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := GetEnv[string]("TMDB_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := GetEnv[string]("TMDB_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := GetEnv[int]("TMDB_PREFETCH_MARGIN"); ok {
		c.PrefetchMargin = v
	}
}

// Validate checks everything except the API key. A missing key is reported
// by the catalog when the first page is requested.
func (c *Config) Validate() error {
	c.APIKey = strings.TrimSpace(c.APIKey)

	for field, raw := range map[string]string{"base_url": c.BaseURL, "web_url": c.WebURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return &Error{Field: field, Err: err}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return &Error{Field: field, Err: fmt.Errorf("scheme must be http or https, got %q", u.Scheme)}
		}
	}
	if !tmdb.ValidList(c.List) {
		return &Error{Field: "list", Err: fmt.Errorf("%q is not one of %s", c.List, strings.Join(tmdb.Lists, ", "))}
	}
	if c.Timeout < 0 {
		return &Error{Field: "timeout", Err: errors.New("must not be negative")}
	}
	if c.RateLimit < 0 {
		return &Error{Field: "rate_limit", Err: errors.New("must not be negative")}
	}
	if c.PrefetchMargin < 0 {
		return &Error{Field: "prefetch_margin", Err: errors.New("must not be negative")}
	}
	if len(c.Ratings) == 0 {
		return &Error{Field: "ratings", Err: errors.New("at least one rating bucket is required")}
	}
	seen := make(map[int]bool, len(c.Ratings))
	for _, r := range c.Ratings {
		if r < 1 || r > 9 {
			return &Error{Field: "ratings", Err: fmt.Errorf("bucket %d out of range 1-9", r)}
		}
		if seen[r] {
			return &Error{Field: "ratings", Err: fmt.Errorf("bucket %d listed twice", r)}
		}
		seen[r] = true
	}
	return nil
}
