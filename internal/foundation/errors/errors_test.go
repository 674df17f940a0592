package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		file, ok := err.Context().GetString("file")
		assert.True(t, ok)
		assert.Equal(t, "config.yaml", file)
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())
	})

	t.Run("Wrapped cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := CacheError(cause, "cache write failed").Build()

		assert.Equal(t, "[cache:warning] cache write failed: disk full", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.False(t, err.IsFatal())
		assert.True(t, err.Degrades())
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := ContentError(stderrors.New("boom"), "raw content unavailable").Build()
		outer := fmt.Errorf("render main: %w", inner)

		assert.True(t, IsClassified(outer))
		assert.True(t, HasCategory(outer, CategoryContent))
		assert.Equal(t, SeverityFatal, GetSeverity(outer))
		assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := NotFoundError("missing").Build()
		derived := base.WithContext("path", "/x")

		_, ok := base.Context().Get("path")
		assert.False(t, ok)
		v, ok := derived.Context().GetString("path")
		assert.True(t, ok)
		assert.Equal(t, "/x", v)
		assert.ErrorIs(t, derived, base)
	})
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 1}
	b := ErrorContext{"b": 2}
	merged := a.Merge(b)
	assert.Equal(t, 1, merged["a"])
	assert.Equal(t, 2, merged["b"])
	assert.Equal(t, 1, a["b"])

	var nilCtx ErrorContext
	assert.Equal(t, b, nilCtx.Merge(b))
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nil", nil, http.StatusOK},
		{"plain", stderrors.New("x"), http.StatusInternalServerError},
		{"not found", NotFoundError("no page").Build(), http.StatusNotFound},
		{"content", ContentError(stderrors.New("x"), "broken").Build(), http.StatusBadGateway},
		{"validation", ValidationError("bad").Build(), http.StatusBadRequest},
		{"cache", CacheError(stderrors.New("x"), "slot").Build(), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, adapter.StatusCodeFor(tt.err))
		})
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/broken", nil)
	adapter.WriteError(rec, req, ContentError(stderrors.New("x"), "broken").Build())
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Bad Gateway\n", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestCLIErrorAdapter(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, nil)

	assert.Equal(t, 0, adapter.ExitCodeFor(nil))
	assert.Equal(t, 1, adapter.ExitCodeFor(stderrors.New("x")))
	assert.Equal(t, 7, adapter.ExitCodeFor(ConfigError("bad").Build()))
	assert.Equal(t, 11, adapter.ExitCodeFor(ContentError(nil, "bad").Build()))

	var buf bytes.Buffer
	adapter.Report(&buf, ConfigError("bad config").WithContext("field", "web_root").Build())
	assert.Contains(t, buf.String(), "Error: bad config")
	assert.Contains(t, buf.String(), "field: web_root")
}
