package transform

import (
	"log/slog"
	"strings"
	"time"
)

// Environment selects production or development behavior.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
)

// DisplayMode controls the initial state of collapsible blocks.
type DisplayMode string

const (
	DisplayDefault   DisplayMode = ""
	DisplayExpanded  DisplayMode = "expanded"
	DisplayCollapsed DisplayMode = "collapsed"
)

const (
	DefaultTableAnchorPrefix = "tabulka_"
	DefaultBranch            = "master"
)

// Options configures a Pipeline. They are fixed for its lifetime.
type Options struct {
	Environment Environment

	// MenuHTML is placed into the menu wrapper at the top of body.
	MenuHTML string

	// OwnHosts are the hosts of this site; links to them are not external.
	OwnHosts []string
	// InstanceDomain is the domain shared by all sibling rule sites, e.g. "drdplus.info".
	InstanceDomain string
	// LocalDomain replaces InstanceDomain in development, e.g. "drdplus.loc".
	LocalDomain string
	// TableAnchorPrefix marks fragments pointing at a table on a sibling site.
	TableAnchorPrefix string

	RepositoryURL string
	Branch        string

	DisplayMode DisplayMode

	Logger *slog.Logger
}

// BuildInfo describes the render a document is produced for.
type BuildInfo struct {
	Version  string
	CacheID  string
	CachedAt time.Time
}

func (o Options) withDefaults() Options {
	if o.Environment == "" {
		o.Environment = EnvProduction
	}
	if o.TableAnchorPrefix == "" {
		o.TableAnchorPrefix = DefaultTableAnchorPrefix
	}
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.InstanceDomain = strings.ToLower(strings.Trim(o.InstanceDomain, "."))
	o.LocalDomain = strings.ToLower(strings.Trim(o.LocalDomain, "."))
	hosts := make([]string, 0, len(o.OwnHosts))
	for _, h := range o.OwnHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	o.OwnHosts = hosts
	return o
}

func (o Options) isOwnHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range o.OwnHosts {
		if h == host {
			return true
		}
	}
	return false
}

// isInstanceHost reports whether host belongs to the family of sibling sites.
func (o Options) isInstanceHost(host string) bool {
	return underDomain(host, o.InstanceDomain)
}

func underDomain(host, domain string) bool {
	if domain == "" {
		return false
	}
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
