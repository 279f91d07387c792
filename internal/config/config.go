package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Search     Search     `yaml:"search"`
	Sampling   Sampling   `yaml:"sampling"`
	Analysis   Analysis   `yaml:"analysis"`
	Generation Generation `yaml:"generation"`
	Image      Image      `yaml:"image"`
	Publish    Publish    `yaml:"publish"`
	Cursor     Cursor     `yaml:"cursor"`
	Output     Output     `yaml:"output"`
	Metrics    Metrics    `yaml:"metrics"`
	Archive    Archive    `yaml:"archive"`
	Server     Server     `yaml:"server"`
}

type Search struct {
	Endpoint       string   `yaml:"endpoint"`
	APIKeyEnv      string   `yaml:"api_key_env"`
	Location       string   `yaml:"location"`
	Language       string   `yaml:"hl"`
	Country        string   `yaml:"gl"`
	GoogleDomain   string   `yaml:"google_domain"`
	Num            int      `yaml:"num"`
	RecentWindow   string   `yaml:"recent_window"`
	MaxResults     int      `yaml:"max_results"`
	OfficialSearch bool     `yaml:"official_search"`
	OfficialSites  []string `yaml:"official_sites"`
}

type Sampling struct {
	MaxPages          int           `yaml:"max_pages"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Extractor         string        `yaml:"extractor"`
}

type Analysis struct {
	OutlineSize          int      `yaml:"outline_size"`
	ExcerptChars         int      `yaml:"excerpt_chars"`
	RecentMonths         int      `yaml:"recent_months"`
	AuthoritativeDomains []string `yaml:"authoritative_domains"`
}

type Generation struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
	Profile      string  `yaml:"profile"`
	InternalLink Link    `yaml:"internal_link"`
	OllamaURL    string  `yaml:"ollama_url"`
	APIKeyEnv    string  `yaml:"api_key_env"`
}

type Link struct {
	URL  string `yaml:"url"`
	Text string `yaml:"text"`
}

type Image struct {
	Source    string `yaml:"source"`
	Model     string `yaml:"model"`
	Size      string `yaml:"size"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Publish struct {
	WordPress  WordPress `yaml:"wordpress"`
	Status     string    `yaml:"status"`
	CTAHTML    string    `yaml:"cta_html"`
	MidCTAHTML string    `yaml:"mid_cta_html"`
}

type WordPress struct {
	URL         string `yaml:"url"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"app_password_env"`
	URLEnv      string `yaml:"url_env"`
	UserEnv     string `yaml:"user_env"`
}

type Cursor struct {
	Path string `yaml:"path"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Metrics struct {
	Textfile string `yaml:"textfile"`
}

type Archive struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

type Server struct {
	Port int `yaml:"port"`
}

// Secrets holds credentials resolved from the environment once at startup.
type Secrets struct {
	SearchAPIKey      string
	GenerationAPIKey  string
	ImageAPIKey       string
	WordPressURL      string
	WordPressUser     string
	WordPressPassword string
}

// ConfigDir returns the XDG config directory for autopost.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "autopost")
}

// DataDir returns the XDG data directory for autopost.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "autopost")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/autopost/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'autopost init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Search: Search{
			Endpoint:       "https://serpapi.com/search.json",
			APIKeyEnv:      "SERP_API_KEY",
			Location:       "South Korea",
			Language:       "ko",
			Country:        "kr",
			GoogleDomain:   "google.co.kr",
			Num:            15,
			RecentWindow:   "qdr:m3",
			MaxResults:     7,
			OfficialSearch: true,
		},
		Sampling: Sampling{
			MaxPages:  5,
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			Extractor: "regex",
		},
		Analysis: Analysis{
			OutlineSize:  8,
			ExcerptChars: 1000,
			RecentMonths: 3,
		},
		Generation: Generation{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 6000,
			Profile:   "strict-html",
			OllamaURL: "http://localhost:11434",
			APIKeyEnv: "CLAUDE_API_KEY",
		},
		Image: Image{
			Source:    "generated",
			Model:     "dall-e-3",
			Size:      "1792x1024",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Publish: Publish{
			Status: "publish",
			WordPress: WordPress{
				PasswordEnv: "WP_APP_PASSWORD",
				URLEnv:      "WP_URL",
				UserEnv:     "WP_USER",
			},
		},
		Cursor: Cursor{Path: "keywords.json"},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Generation.Profile {
	case "strict-html", "permissive-markdown":
	default:
		return fmt.Errorf("invalid generation.profile %q", c.Generation.Profile)
	}
	switch c.Image.Source {
	case "generated", "stock", "none":
	default:
		return fmt.Errorf("invalid image.source %q", c.Image.Source)
	}
	switch c.Publish.Status {
	case "draft", "publish":
	default:
		return fmt.Errorf("invalid publish.status %q", c.Publish.Status)
	}
	switch c.Sampling.Extractor {
	case "regex", "readability":
	default:
		return fmt.Errorf("invalid sampling.extractor %q", c.Sampling.Extractor)
	}
	return nil
}

// Secrets resolves credentials from the environment variables named in the config.
// Explicit wordpress url/user values in the file win over the environment.
func (c *Config) Secrets() Secrets {
	s := Secrets{
		SearchAPIKey:      getenv(c.Search.APIKeyEnv),
		GenerationAPIKey:  getenv(c.Generation.APIKeyEnv),
		ImageAPIKey:       getenv(c.Image.APIKeyEnv),
		WordPressURL:      c.Publish.WordPress.URL,
		WordPressUser:     c.Publish.WordPress.User,
		WordPressPassword: getenv(c.Publish.WordPress.PasswordEnv),
	}
	if s.WordPressURL == "" {
		s.WordPressURL = getenv(c.Publish.WordPress.URLEnv)
	}
	if s.WordPressUser == "" {
		s.WordPressUser = getenv(c.Publish.WordPress.UserEnv)
	}
	return s
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
