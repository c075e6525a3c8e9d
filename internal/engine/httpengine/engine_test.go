package httpengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

func TestAuditPostsOptionsAndDecodesReport(t *testing.T) {
	t.Parallel()

	var got auditRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"requestedUrl": "https://example.com",
			"finalUrl": "https://example.com/",
			"categories": {"performance": {"id": "performance", "score": 0.93}},
			"audits": {"speed-index": {"id": "speed-index", "numericValue": 1200.5}}
		}`))
	}))
	defer srv.Close()

	engine := New(srv.URL, time.Minute)
	r, err := engine.Audit(context.Background(), "https://example.com", audit.EngineOptions{
		Endpoint:          "http://127.0.0.1:9222",
		NavigationTimeout: 60 * time.Second,
		ThrottlingMethod:  "simulate",
	})
	require.NoError(t, err)

	require.Equal(t, "https://example.com", got.URL)
	require.Equal(t, "http://127.0.0.1:9222", got.Endpoint)
	require.EqualValues(t, 60000, got.NavigationTimeoutMs)
	require.Equal(t, "simulate", got.ThrottlingMethod)

	require.Equal(t, "https://example.com/", r.FinalURL)
	require.Contains(t, r.Audits, "speed-index")
}

func TestAuditEngineError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "chrome crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := New(srv.URL, time.Minute)
	_, err := engine.Audit(context.Background(), "https://example.com", audit.EngineOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "chrome crashed")
}
