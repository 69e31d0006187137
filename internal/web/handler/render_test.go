package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheets/internal/testutil"
)

func TestRenderLogsFailureWithoutRewritingResponse(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, "<h1>Half a page")
		return errors.New("template broke")
	})

	rec := httptest.NewRecorder()
	render(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil), logger, http.StatusOK, page)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>Half a page", rec.Body.String())

	entry := logs.Find("render page")
	require.NotNil(t, entry)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "/dashboard", entry["path"])
	assert.Equal(t, "template broke", entry["error"])
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/criar", safeNext("/criar", "/dashboard"))
	assert.Equal(t, "/dashboard", safeNext("//evil.example", "/dashboard"))
	assert.Equal(t, "/dashboard", safeNext(`/\evil.example`, "/dashboard"))
	assert.Equal(t, "/dashboard", safeNext("https://evil.example", "/dashboard"))
}
