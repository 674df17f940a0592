package server

import (
	"net/http"
	"path"
	"strings"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

// withCacheControl sets a Cache-Control header chosen by file type. Asset
// links carry a version query, so stylesheets and scripts never go stale.
func withCacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cc := determineCacheControl(r.URL.Path); cc != "" {
			w.Header().Set("Cache-Control", cc)
		}
		next.ServeHTTP(w, r)
	})
}

func determineCacheControl(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".css", ".js", ".woff", ".woff2", ".ttf", ".eot", ".otf":
		return immutableCacheControl
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico":
		return "public, max-age=604800"
	case ".pdf", ".zip":
		return "public, max-age=86400"
	case ".html", "":
		return "no-cache, must-revalidate"
	default:
		return ""
	}
}
