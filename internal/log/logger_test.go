package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DuplicatesToFile(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "expenses.log")

	logger, closer, err := New(Config{Level: slog.LevelInfo, Component: ComponentPlots, File: path, Output: &out})
	require.NoError(t, err)

	logger.Info("rendered", FieldYear, 2024)
	logger.Debug("hidden")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(raw))
	assert.Contains(t, string(raw), "rendered")
	assert.Contains(t, string(raw), "component=plots")
	assert.Contains(t, string(raw), "year=2024")
	assert.NotContains(t, string(raw), "hidden")
	assert.NotContains(t, string(raw), "\x1b[")
}

func TestNew_BadFile(t *testing.T) {
	_, _, err := New(Config{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_Op(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentSettleUp})
	require.NoError(t, err)

	logger.Op(context.Background(), OpReshape, nil, FieldUser, "bob")
	logger.Op(context.Background(), OpReshape, errors.New("boom"))

	s := buf.String()
	assert.Contains(t, s, "reshape done")
	assert.Contains(t, s, "user=bob")
	assert.Contains(t, s, "level=ERROR")
	assert.Contains(t, s, "error=boom")
}

func TestMiddleware_LoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger, _, _ := New(Config{Handler: slog.NewTextHandler(&buf, nil)})

	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestID(r.Context(), "req-1")
		FromContext(ctx).Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
