package models

// Benchmark tickers consumed by the regime engine
const (
	SPY = "SPY"
	QQQ = "QQQ"
	IWM = "IWM"
	MDY = "MDY"
	IBB = "IBB"
	XBI = "XBI"
	VIX = "VIX"
)

var (
	// MainIndices are the four broad-market benchmarks every regime looks at
	MainIndices = []string{SPY, QQQ, IWM, MDY}
	// BiotechIndices are the speculative-appetite proxies
	BiotechIndices = []string{IBB, XBI}
	// DefaultTickers is the full set fetched when nothing else is configured
	DefaultTickers = []string{SPY, QQQ, IWM, MDY, IBB, XBI, VIX}
)

// MAField names a moving-average column of a bar
type MAField string

const (
	MA50  MAField = "ma50"
	MA200 MAField = "ma200"
)

// Bar represents a single daily bar with its moving averages
type Bar struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open,omitempty"`
	High     float64 `json:"high,omitempty"`
	Low      float64 `json:"low,omitempty"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume,omitempty"`
	MA50     float64 `json:"ma50"`
	MA200    float64 `json:"ma200"`
}

// MA returns the requested moving average. A zero value means the average
// has not accumulated enough history yet.
func (b Bar) MA(field MAField) (float64, bool) {
	var v float64
	switch field {
	case MA50:
		v = b.MA50
	case MA200:
		v = b.MA200
	default:
		return 0, false
	}
	return v, v != 0
}

// Series is an ordered list of bars, oldest first
type Series []Bar

// IndexDataset maps a ticker to its series. Tickers may be absent.
type IndexDataset map[string]Series

// TwelveResponse represents the API response from Twelve Data
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
