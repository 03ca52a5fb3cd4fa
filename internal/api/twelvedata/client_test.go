package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/MarketRegime/models"
)

type fakeValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// newTestServer answers time_series requests with n newest-first bars for
// every symbol except those listed in failing
func newTestServer(t *testing.T, n int, failing ...string) *httptest.Server {
	t.Helper()
	fail := make(map[string]bool, len(failing))
	for _, s := range failing {
		fail[s] = true
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "1day", r.URL.Query().Get("interval"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		symbol := r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		if fail[symbol] {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    404,
				"message": "symbol not found",
				"status":  "error",
			})
			return
		}

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		values := make([]fakeValue, 0, n)
		for i := n - 1; i >= 0; i-- {
			c := fmt.Sprintf("%d", 100+i)
			values = append(values, fakeValue{
				Datetime: start.AddDate(0, 0, i).Format("2006-01-02"),
				Open:     c, High: c, Low: c, Close: c,
				Volume: "1000",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"meta":   map[string]string{"symbol": symbol, "interval": "1day"},
			"values": values,
			"status": "ok",
		})
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		RequestsPerSec:  100,
		MaxRetryTimeout: time.Second,
	})
}

func TestGetDailyBars(t *testing.T) {
	srv := newTestServer(t, 5)
	defer srv.Close()

	bars, err := newTestClient(srv.URL).GetDailyBars(context.Background(), models.SPY, 5)
	require.NoError(t, err)
	require.Len(t, bars, 5)

	assert.Equal(t, "2024-01-01", bars[0].Datetime, "oldest first")
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 104.0, bars[4].Close)
	assert.Equal(t, int64(1000), bars[4].Volume)
}

func TestGetDailyBars_APIError(t *testing.T) {
	srv := newTestServer(t, 5, "NOPE")
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetDailyBars(context.Background(), "NOPE", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestGetDailyBars_Empty(t *testing.T) {
	srv := newTestServer(t, 0)
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetDailyBars(context.Background(), models.SPY, 5)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestFetchDataset_SkipsFailedTickers(t *testing.T) {
	srv := newTestServer(t, 60, models.VIX)
	defer srv.Close()

	ds, err := newTestClient(srv.URL).FetchDataset(context.Background(), []string{models.SPY, models.VIX}, 60)
	require.NoError(t, err)

	require.Contains(t, ds, models.SPY)
	assert.NotContains(t, ds, models.VIX)

	latest, ok := ds[models.SPY].Latest()
	require.True(t, ok)
	assert.InDelta(t, 134.5, latest.MA50, 1e-9, "mean of closes 110..159")
	assert.Equal(t, 0.0, latest.MA200, "not enough history for the long average")
}

func TestFetchDataset_AllFailed(t *testing.T) {
	srv := newTestServer(t, 60, models.SPY, models.QQQ)
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchDataset(context.Background(), []string{models.SPY, models.QQQ}, 60)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPY")
	assert.Contains(t, err.Error(), "QQQ")
}

func TestHistoryBars(t *testing.T) {
	assert.Equal(t, 286, HistoryBars(60))
}
