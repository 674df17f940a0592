package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyKind       = "kind"
	KeyCacheID    = "cache_id"
	KeyIdentity   = "identity"
	KeyVersion    = "version"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyRoot       = "root"
	KeySuffix     = "suffix"
	KeyCount      = "count"
	KeyBytes      = "bytes"
	KeyDurationMS = "duration_ms"
	KeyRenderID   = "render_id"
	KeyRedirect   = "redirect"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyJob        = "job"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func CacheID(id string) slog.Attr      { return slog.String(KeyCacheID, id) }
func Identity(id string) slog.Attr     { return slog.String(KeyIdentity, id) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Root(r string) slog.Attr          { return slog.String(KeyRoot, r) }
func Suffix(s string) slog.Attr        { return slog.String(KeySuffix, s) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Bytes(n int) slog.Attr            { return slog.Int(KeyBytes, n) }
func RenderID(id string) slog.Attr     { return slog.String(KeyRenderID, id) }
func Redirect(target string) slog.Attr { return slog.String(KeyRedirect, target) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Job(name string) slog.Attr        { return slog.String(KeyJob, name) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
