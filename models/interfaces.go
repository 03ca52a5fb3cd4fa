package models

import "context"

// DatasetSource fetches a snapshot of daily series for a set of tickers
type DatasetSource interface {
	FetchDataset(ctx context.Context, tickers []string, bars int) (IndexDataset, error)
}
