package content

import (
	"log/slog"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/rulesweb/internal/assets"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/versioning"
)

// AssetDir is one scanned asset folder and the URL prefix it is served under.
type AssetDir struct {
	Root      string
	URLPrefix string
}

// HeadConfig holds the static parts of the page head.
type HeadConfig struct {
	Title       string
	Description string
	Favicon     string
	Language    string
	Styles      []AssetDir
	Scripts     []AssetDir
}

// Head assembles the <head> section, linking stylesheets and scripts in
// layer order.
type Head struct {
	cfg      HeadConfig
	styles   *assets.Cache
	scripts  *assets.Cache
	versions versioning.Provider
	logger   *slog.Logger
}

// NewHead creates a head assembler. versions, when set, adds a cache-busting
// query to asset links.
func NewHead(cfg HeadConfig, styles, scripts *assets.Cache, versions versioning.Provider, logger *slog.Logger) *Head {
	if cfg.Language == "" {
		cfg.Language = "cs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Head{cfg: cfg, styles: styles, scripts: scripts, versions: versions, logger: logger}
}

// Title returns the configured page title.
func (h *Head) Title() string {
	return h.cfg.Title
}

// Language returns the page language.
func (h *Head) Language() string {
	return h.cfg.Language
}

// Render returns the inner markup of <head> with the given title.
func (h *Head) Render(title string) (string, error) {
	if title == "" {
		title = h.cfg.Title
	}
	var sb strings.Builder
	sb.WriteString(`<meta charset="utf-8">`)
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	sb.WriteString("<title>" + html.EscapeString(title) + "</title>")
	if h.cfg.Description != "" {
		sb.WriteString(`<meta name="description" content="` + html.EscapeString(h.cfg.Description) + `">`)
	}
	if h.cfg.Favicon != "" {
		sb.WriteString(`<link rel="shortcut icon" href="` + html.EscapeString(h.cfg.Favicon) + `">`)
	}

	query := h.versionQuery()
	styles, err := h.links(h.styles, h.cfg.Styles)
	if err != nil {
		return "", err
	}
	for _, href := range styles {
		sb.WriteString(`<link rel="stylesheet" type="text/css" href="` + html.EscapeString(href+query) + `">`)
	}
	scripts, err := h.links(h.scripts, h.cfg.Scripts)
	if err != nil {
		return "", err
	}
	for _, src := range scripts {
		sb.WriteString(`<script type="text/javascript" src="` + html.EscapeString(src+query) + `"></script>`)
	}
	return sb.String(), nil
}

// links resolves every dir in order. A missing root is a misconfiguration and
// fails; an unreadable subtree is logged and left out.
func (h *Head) links(c *assets.Cache, dirs []AssetDir) ([]string, error) {
	if c == nil {
		return nil, nil
	}
	var out []string
	for _, dir := range dirs {
		files, err := c.Get(dir.Root)
		if err != nil {
			if errors.HasCategory(err, errors.CategoryNotFound) && files == nil {
				return nil, err
			}
			h.logger.Warn("Some assets could not be scanned", logfields.Root(dir.Root), logfields.Error(err))
		}
		for _, f := range files {
			out = append(out, joinURL(dir.URLPrefix, f))
		}
	}
	return out, nil
}

func (h *Head) versionQuery() string {
	if h.versions == nil {
		return ""
	}
	v, err := h.versions.CurrentPatchVersion()
	if err != nil || v == "" {
		return ""
	}
	return "?version=" + url.QueryEscape(v)
}

func joinURL(prefix, rel string) string {
	if strings.HasPrefix(prefix, "http://") || strings.HasPrefix(prefix, "https://") {
		return strings.TrimRight(prefix, "/") + "/" + rel
	}
	return path.Join("/", prefix, rel)
}
