package config

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// Validate checks a normalized and defaulted configuration. The first
// problem found is returned as a config error naming the field.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateVersion,
		validateContent,
		validateAssets,
		validateCache,
		validateVersioning,
		validateLinks,
		validateRedirects,
		validateNotify,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func fieldError(field, message string) error {
	return errors.ConfigError(message).WithContext("field", field).Build()
}

func validateVersion(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).Build()
	}
	return nil
}

func validateContent(cfg *Config) error {
	if strings.TrimSpace(cfg.Content.WebDir) == "" {
		return fieldError("content.web_dir", "web directory is required")
	}
	return nil
}

func validateAssets(cfg *Config) error {
	check := func(field string, dirs []AssetDirConfig) error {
		for _, d := range dirs {
			if strings.TrimSpace(d.Root) == "" {
				return fieldError(field, "asset directory root is required")
			}
		}
		return nil
	}
	if err := check("assets.styles", cfg.Assets.Styles); err != nil {
		return err
	}
	return check("assets.scripts", cfg.Assets.Scripts)
}

func validateCache(cfg *Config) error {
	if cfg.Cache.CleanInterval < 0 {
		return fieldError("cache.clean_interval", "clean interval cannot be negative")
	}
	if cfg.Cache.MemoryCeilingMB < 0 {
		return fieldError("cache.memory_ceiling_mb", "memory ceiling cannot be negative")
	}
	return nil
}

func validateVersioning(cfg *Config) error {
	v := cfg.Versioning
	switch v.Strategy {
	case VersionStatic:
		if strings.TrimSpace(v.Static) == "" {
			return fieldError("versioning.static", "static strategy needs a version")
		}
	case VersionGit:
		if v.MinorVersion != "" && strings.Count(v.MinorVersion, ".") != 1 {
			return fieldError("versioning.minor_version", "minor version must look like X.Y")
		}
	}
	if v.CacheTTL < 0 {
		return fieldError("versioning.cache_ttl", "cache ttl cannot be negative")
	}
	return nil
}

func validateLinks(cfg *Config) error {
	if cfg.Links.LocalDomain != "" && cfg.Links.InstanceDomain == "" {
		return fieldError("links.local_domain", "local domain requires instance domain")
	}
	if cfg.Links.RepositoryURL != "" {
		u, err := url.Parse(cfg.Links.RepositoryURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fieldError("links.repository_url", "repository url must be absolute")
		}
	}
	return nil
}

func validateRedirects(cfg *Config) error {
	for path, rd := range cfg.Redirects {
		if !strings.HasPrefix(path, "/") {
			return errors.ConfigError("redirect path must start with /").WithContext("path", path).Build()
		}
		if strings.TrimSpace(rd.Target) == "" {
			return errors.ConfigError("redirect target is required").WithContext("path", path).Build()
		}
		if rd.AfterSeconds < 0 {
			return errors.ConfigError("redirect delay cannot be negative").WithContext("path", path).Build()
		}
	}
	return nil
}

func validateNotify(cfg *Config) error {
	if n := cfg.Notify.NATS; n != nil && strings.TrimSpace(n.URL) == "" {
		return fieldError("notify.nats.url", "nats url is required when nats is configured")
	}
	return nil
}
