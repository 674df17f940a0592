// Package config loads the YAML configuration of the rules site.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
)

// CurrentVersion is the only configuration format version understood.
const CurrentVersion = "1"

// EnvOverride, when set, replaces the configured environment.
const EnvOverride = "RULESWEB_ENV"

// Config is the complete site configuration.
type Config struct {
	Version     string                    `yaml:"version"`
	Environment transform.Environment     `yaml:"environment"`
	Site        SiteConfig                `yaml:"site"`
	Content     ContentConfig             `yaml:"content"`
	Assets      AssetsConfig              `yaml:"assets"`
	Cache       CacheConfig               `yaml:"cache"`
	Versioning  VersioningConfig          `yaml:"versioning"`
	Links       LinksConfig               `yaml:"links"`
	Menu        MenuConfig                `yaml:"menu"`
	Redirects   map[string]RedirectConfig `yaml:"redirects,omitempty"`
	Notify      NotifyConfig              `yaml:"notify"`
	Server      ServerConfig              `yaml:"server"`
	Monitoring  MonitoringConfig          `yaml:"monitoring"`
}

// SiteConfig holds the page head and presentation settings.
type SiteConfig struct {
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	Favicon     string                `yaml:"favicon"`
	Language    string                `yaml:"language"`
	DisplayMode transform.DisplayMode `yaml:"display_mode"`
}

// ContentConfig locates the raw content.
type ContentConfig struct {
	WebDir       string `yaml:"web_dir"`        // .html and .md parts of the main page
	PDFDir       string `yaml:"pdf_dir"`        // directory holding the downloadable pdf
	GatewayFile  string `yaml:"gateway_file"`   // body of the gateway page, optional
	NotFoundFile string `yaml:"not_found_file"` // body of the not found page, optional
}

// AssetDirConfig is one scanned asset folder.
type AssetDirConfig struct {
	Root      string `yaml:"root"`
	URLPrefix string `yaml:"url_prefix"`
}

// AssetsConfig lists the stylesheet and script folders.
type AssetsConfig struct {
	Styles  []AssetDirConfig `yaml:"styles"`
	Scripts []AssetDirConfig `yaml:"scripts"`
	// SortSiblings orders files of equal depth by path instead of directory order.
	SortSiblings bool `yaml:"sort_siblings"`
	// Watch invalidates resolved asset lists when the folders change.
	Watch bool `yaml:"watch"`
}

// CacheBackend selects the cache store implementation.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendFS     CacheBackend = "fs"
	CacheBackendSQLite CacheBackend = "sqlite"
)

// CacheConfig configures the rendered page cache.
type CacheConfig struct {
	Backend CacheBackend `yaml:"backend"`
	// Path is the directory (fs) or database file (sqlite).
	Path           string        `yaml:"path"`
	CoalesceBuilds bool          `yaml:"coalesce_builds"`
	CleanInterval  time.Duration `yaml:"clean_interval"`
	// MemoryCeilingMB raises the soft memory limit while a page is built; 0 disables it.
	MemoryCeilingMB int64 `yaml:"memory_ceiling_mb"`
}

// VersionStrategy selects how the current content version is determined.
type VersionStrategy string

const (
	VersionStatic      VersionStrategy = "static"
	VersionGit         VersionStrategy = "git"
	VersionFingerprint VersionStrategy = "fingerprint"
)

// VersioningConfig configures the version provider.
type VersioningConfig struct {
	Strategy VersionStrategy `yaml:"strategy"`
	// Static is the version used by the static strategy.
	Static string `yaml:"static"`
	// RepoPath is the git checkout inspected by the git strategy.
	RepoPath string `yaml:"repo_path"`
	// MinorVersion limits git tags to one minor line, e.g. "1.2".
	MinorVersion string `yaml:"minor_version"`
	// CacheTTL memoizes the resolved version; 0 resolves on every request.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LinksConfig drives the link rewriting steps.
type LinksConfig struct {
	OwnHosts          []string `yaml:"own_hosts"`
	InstanceDomain    string   `yaml:"instance_domain"`
	LocalDomain       string   `yaml:"local_domain"`
	TableAnchorPrefix string   `yaml:"table_anchor_prefix"`
	RepositoryURL     string   `yaml:"repository_url"`
	Branch            string   `yaml:"branch"`
}

// MenuItemConfig is one navigation link.
type MenuItemConfig struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// MenuConfig is the navigation menu.
type MenuConfig struct {
	HomeLabel string           `yaml:"home_label"`
	HomeHref  string           `yaml:"home_href"`
	Items     []MenuItemConfig `yaml:"items"`
}

// RedirectConfig sends a request path elsewhere after a delay.
type RedirectConfig struct {
	Target       string `yaml:"target"`
	AfterSeconds int    `yaml:"after_seconds"`
}

// NATSConfig enables render notifications.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	Subject        string        `yaml:"subject"`
	JetStream      bool          `yaml:"jetstream"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// NotifyConfig configures render notifications. Nil NATS disables them.
type NotifyConfig struct {
	NATS *NATSConfig `yaml:"nats,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MonitoringConfig configures metrics and logging.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// IsDevelopment reports whether the site runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == transform.EnvDevelopment
}

// Load reads, normalizes, defaults and validates a configuration file.
// ${VAR} references are expanded from the environment after .env files are loaded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	// #nosec G304 -- path comes from the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration file").
			WithContext("path", configPath).Fatal().Build()
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Fatal().Build()
	}
	if env := os.Getenv(EnvOverride); env != "" {
		cfg.Environment = transform.Environment(env)
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Version:     CurrentVersion,
		Environment: transform.EnvProduction,
		Site: SiteConfig{
			Title:       "Pravidla",
			Description: "Pravidla hry",
			Favicon:     "/favicon.ico",
			Language:    "cs",
		},
		Content: ContentConfig{WebDir: "./web", PDFDir: "./pdf"},
		Assets: AssetsConfig{
			Styles:  []AssetDirConfig{{Root: "./css", URLPrefix: "/css"}},
			Scripts: []AssetDirConfig{{Root: "./js", URLPrefix: "/js"}},
			Watch:   true,
		},
		Cache:      CacheConfig{Backend: CacheBackendFS, Path: "./cache", CleanInterval: time.Hour},
		Versioning: VersioningConfig{Strategy: VersionGit, RepoPath: ".", CacheTTL: time.Minute},
		Links: LinksConfig{
			OwnHosts:       []string{"pravidla.example.com"},
			InstanceDomain: "example.com",
			LocalDomain:    "example.loc",
		},
		Menu:   MenuConfig{HomeLabel: "Domů", Items: []MenuItemConfig{{Label: "Tabulky", Href: "/tables"}}},
		Server: ServerConfig{Addr: ":8080"},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
			Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example configuration").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError(err, "failed to write configuration file").WithContext("path", configPath).Fatal().Build()
	}
	return nil
}
