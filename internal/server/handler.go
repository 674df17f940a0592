package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/rulesweb/internal/config"
	"git.home.luguber.info/inful/rulesweb/internal/content"
	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
	"git.home.luguber.info/inful/rulesweb/internal/metrics"
	"git.home.luguber.info/inful/rulesweb/internal/observability"
	"git.home.luguber.info/inful/rulesweb/internal/version"
)

const healthPath = "/healthz"

// healthResponse is the body of the health endpoint.
type healthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Content     string    `json:"content_version,omitempty"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewHandler returns the site handler: health, metrics, static assets and
// every page route, wrapped in logging and panic recovery.
func NewHandler(app *App) http.Handler {
	adapter := errors.NewHTTPErrorAdapter(app.Logger)
	mux := http.NewServeMux()

	mux.HandleFunc(healthPath, handleHealth(app))
	if app.Config.Monitoring.Metrics.Enabled {
		mux.Handle(app.Config.Monitoring.Metrics.Path, metrics.HTTPHandler(app.Registry))
	}
	for _, dirs := range [][]config.AssetDirConfig{app.Config.Assets.Styles, app.Config.Assets.Scripts} {
		for _, dir := range dirs {
			if strings.HasPrefix(dir.URLPrefix, "http://") || strings.HasPrefix(dir.URLPrefix, "https://") {
				continue
			}
			prefix := strings.TrimRight(dir.URLPrefix, "/") + "/"
			mux.Handle(prefix, withCacheControl(http.StripPrefix(prefix, http.FileServer(http.Dir(dir.Root)))))
		}
	}
	mux.Handle("/", pageHandler(app, adapter))

	return chain(app.Logger, adapter)(mux)
}

func pageHandler(app *App, adapter *errors.HTTPErrorAdapter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			adapter.WriteError(w, r, errors.ValidationError("method not allowed").
				WithContext("method", r.Method).Build())
			return
		}

		ctx := observability.WithRequestPath(r.Context(), r.URL.Path)
		route, body, err := app.Render(ctx, r.URL)
		if err != nil {
			adapter.WriteError(w, r, err)
			return
		}

		status := http.StatusOK
		switch route.Kind {
		case content.KindPDF:
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Cache-Control", determineCacheControl("/rules.pdf"))
		case content.KindNotFound:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			status = http.StatusNotFound
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		}
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(body); err != nil {
			app.Logger.Debug("Client went away", logfields.Error(err))
		}
	})
}

func handleHealth(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:      "healthy",
			Version:     version.Version,
			Environment: string(app.Config.Environment),
			Timestamp:   time.Now().UTC(),
		}
		if v, err := app.Versions.CurrentPatchVersion(); err == nil {
			resp.Content = v
		} else {
			resp.Status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			app.Logger.Warn("Failed to write health response", logfields.Error(err))
		}
	}
}
