package albumart

import (
	"context"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/llehouerou/wavecast/internal/httpclient"
)

// Fetcher downloads raw image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches art over HTTP with retries.
type HTTPFetcher struct {
	client *retryablehttp.Client
}

// NewHTTPFetcher creates a fetcher using client.
func NewHTTPFetcher(client *retryablehttp.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return httpclient.Get(ctx, f.client, url)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}
