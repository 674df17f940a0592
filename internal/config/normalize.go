package config

import (
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/normalization"
	"git.home.luguber.info/inful/rulesweb/internal/transform"
)

var (
	environmentNormalizer = normalization.NewNormalizer(map[string]transform.Environment{
		"production":  transform.EnvProduction,
		"prod":        transform.EnvProduction,
		"development": transform.EnvDevelopment,
		"dev":         transform.EnvDevelopment,
	}, transform.EnvProduction)

	displayModeNormalizer = normalization.NewNormalizer(map[string]transform.DisplayMode{
		"expanded":  transform.DisplayExpanded,
		"collapsed": transform.DisplayCollapsed,
	}, transform.DisplayDefault)

	cacheBackendNormalizer = normalization.NewNormalizer(map[string]CacheBackend{
		"memory":     CacheBackendMemory,
		"fs":         CacheBackendFS,
		"filesystem": CacheBackendFS,
		"sqlite":     CacheBackendSQLite,
	}, CacheBackendMemory)

	versionStrategyNormalizer = normalization.NewNormalizer(map[string]VersionStrategy{
		"static":      VersionStatic,
		"git":         VersionGit,
		"fingerprint": VersionFingerprint,
	}, VersionFingerprint)
)

// normalize canonicalizes the enumerated fields. Unknown values are
// configuration errors rather than silent fallbacks.
func normalize(cfg *Config) error {
	var err error
	if cfg.Environment, err = environmentNormalizer.NormalizeWithError(string(cfg.Environment)); err != nil {
		return invalidField("environment", err)
	}
	if cfg.Site.DisplayMode, err = displayModeNormalizer.NormalizeWithError(string(cfg.Site.DisplayMode)); err != nil {
		return invalidField("site.display_mode", err)
	}
	if cfg.Cache.Backend, err = cacheBackendNormalizer.NormalizeWithError(string(cfg.Cache.Backend)); err != nil {
		return invalidField("cache.backend", err)
	}
	if cfg.Versioning.Strategy, err = versionStrategyNormalizer.NormalizeWithError(string(cfg.Versioning.Strategy)); err != nil {
		return invalidField("versioning.strategy", err)
	}
	cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
	cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
	return nil
}

func invalidField(field string, cause error) error {
	return errors.WrapError(cause, errors.CategoryConfig, "invalid configuration value").
		WithContext("field", field).Fatal().Build()
}
