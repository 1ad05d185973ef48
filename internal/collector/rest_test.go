package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/v1/bars/daily":
			assert.Equal(t, "2330.TW", r.URL.Query().Get("symbol"))
			_, _ = w.Write([]byte(`[
				{"timestamp":1704326400,"open":590,"high":595,"low":585,"close":593,"volume":10},
				{"timestamp":1704240000,"open":580,"high":592,"low":578,"close":590,"volume":12},
				{"timestamp":1704412800,"open":0,"high":0,"low":0,"close":0,"volume":0}
			]`))
		case "/api/v1/fundamentals":
			_, _ = w.Write([]byte(`{"trailing_pe":null,"forward_pe":18.2}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "2330.TW", 365)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 590.0, bars[0].Close)
	assert.Equal(t, 593.0, bars[1].Close)

	pe, err := f.FetchPE(context.Background(), "2330.TW")
	require.NoError(t, err)
	assert.Equal(t, 18.2, pe.Float64)

	_, err = NewRESTFetcher(srv.URL, "wrong", "").FetchDailyBars(context.Background(), "2330.TW", 365)
	assert.ErrorContains(t, err, "status 401")
}
