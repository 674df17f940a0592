package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/rulesweb/internal/notify"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
)

const (
	defaultAddr            = ":8080"
	defaultMetricsPath     = "/metrics"
	defaultCacheDir        = "./cache"
	defaultCleanInterval   = time.Hour
	defaultShutdownTimeout = 10 * time.Second
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
)

// applyDefaults fills every unset field that has a sensible default.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}

	if cfg.Site.Language == "" {
		cfg.Site.Language = "cs"
	}

	for i := range cfg.Assets.Styles {
		if cfg.Assets.Styles[i].URLPrefix == "" {
			cfg.Assets.Styles[i].URLPrefix = "/" + filepath.Base(cfg.Assets.Styles[i].Root)
		}
	}
	for i := range cfg.Assets.Scripts {
		if cfg.Assets.Scripts[i].URLPrefix == "" {
			cfg.Assets.Scripts[i].URLPrefix = "/" + filepath.Base(cfg.Assets.Scripts[i].Root)
		}
	}

	switch cfg.Cache.Backend {
	case CacheBackendFS:
		if cfg.Cache.Path == "" {
			cfg.Cache.Path = defaultCacheDir
		}
	case CacheBackendSQLite:
		if cfg.Cache.Path == "" {
			cfg.Cache.Path = filepath.Join(defaultCacheDir, "cache.db")
		}
	}
	if cfg.Cache.CleanInterval == 0 {
		cfg.Cache.CleanInterval = defaultCleanInterval
	}

	if cfg.Versioning.Strategy == VersionGit && cfg.Versioning.RepoPath == "" {
		cfg.Versioning.RepoPath = "."
	}
	if cfg.Versioning.Strategy == VersionFingerprint && cfg.Versioning.RepoPath == "" {
		cfg.Versioning.RepoPath = cfg.Content.WebDir
	}

	if cfg.Links.TableAnchorPrefix == "" {
		cfg.Links.TableAnchorPrefix = transform.DefaultTableAnchorPrefix
	}
	if cfg.Links.Branch == "" {
		cfg.Links.Branch = transform.DefaultBranch
	}

	if n := cfg.Notify.NATS; n != nil && n.Subject == "" {
		n.Subject = notify.DefaultSubject
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = defaultMetricsPath
	}
}
