package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheets/internal/testutil"
)

func TestRecoveryRendersErrorPage(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	handler := Logging(logger)(Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("sheet exploded")
	})))

	req := httptest.NewRequest(http.MethodGet, "/visualizar/1", nil)
	req.Header.Set("X-Request-ID", "req-77")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Internal Server Error", doc.Find("h1").First().Text())
	assert.Equal(t, "req-77", doc.Find(".request-id code").Text())
	assert.Equal(t, 1, doc.Find(`a[href="/dashboard"]`).Length())

	require.NotNil(t, logs.Find("panic recovered"))
	entry := logs.Find("http request")
	require.NotNil(t, entry)
	assert.Equal(t, "ERROR", entry["level"])
}
