package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/MarketRegime/internal/indicators"
	httpClient "github.com/Alias1177/MarketRegime/internal/platform/http"
	"github.com/Alias1177/MarketRegime/models"
)

// DefaultBaseURL is the public Twelve Data REST endpoint
const DefaultBaseURL = "https://api.twelvedata.com"

// ErrEmptyResponse is returned when the API answers without bars
var ErrEmptyResponse = errors.New("empty data returned")

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 30 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetDailyBars fetches daily bars for a symbol, oldest first
func (c *Client) GetDailyBars(ctx context.Context, symbol string, count int) (models.Series, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", "1day")
	query.Set("outputsize", strconv.Itoa(count))
	query.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/time_series?" + query.Encode()

	c.logger.Debug().Str("symbol", symbol).Int("count", count).Msg("Fetching daily bars")

	// Create a new request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data models.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Error().Str("symbol", symbol).Int("code", data.Code).Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("Twelve Data API error %d: %s", data.Code, data.Message)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No bars in response")
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptyResponse)
	}

	// Sort bars by datetime (oldest first for proper calculations)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	bars := make(models.Series, 0, len(data.Values))
	for _, v := range data.Values {
		bars = append(bars, models.Bar{
			Datetime: v.Datetime,
			Open:     v.Open,
			High:     v.High,
			Low:      v.Low,
			Close:    v.Close,
			Volume:   v.Volume,
		})
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("Fetched daily bars")
	return bars, nil
}

// FetchDataset fetches every ticker and attaches MA50/MA200. A ticker that
// fails is logged and left out; only a total failure is an error.
func (c *Client) FetchDataset(ctx context.Context, tickers []string, bars int) (models.IndexDataset, error) {
	ds := make(models.IndexDataset, len(tickers))
	var errs []error

	for _, ticker := range tickers {
		series, err := c.GetDailyBars(ctx, ticker, bars)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("symbol", ticker).Msg("Skipping ticker")
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		ds[ticker] = indicators.AttachMovingAverages(series)
	}

	if len(ds) == 0 && len(tickers) > 0 {
		return nil, fmt.Errorf("fetching dataset: %w", errors.Join(errs...))
	}
	return ds, nil
}

// HistoryBars is the number of daily bars needed for the long moving
// average plus a lookback of the given length
func HistoryBars(lookback int) int {
	return models.CalculateBarsForHistory(indicators.LongPeriod, lookback)
}
