// Package httpclient builds the retrying HTTP client shared by the catalog
// and album art fetchers.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	userAgent    = "wavecast/1.0"
	requestLimit = 30 * time.Second

	// MaxBodySize bounds every response body read through Get.
	MaxBodySize = 10 * 1024 * 1024

	// MaxMediaSize bounds audio streams downloaded for local playback.
	MaxMediaSize = 64 * 1024 * 1024
)

// ErrBodyTooLarge is returned when a response exceeds the read limit.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// New returns a retrying client that logs through logger.
func New(logger *zap.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.HTTPClient.Timeout = requestLimit
	c.Logger = leveled{logger.Sugar()}
	return c
}

// Get fetches url and returns its body, bounded by MaxBodySize.
func Get(ctx context.Context, c *retryablehttp.Client, url string) ([]byte, error) {
	return GetLimited(ctx, c, url, MaxBodySize)
}

// GetLimited fetches url and returns its body, failing with
// ErrBodyTooLarge above limit bytes.
func GetLimited(ctx context.Context, c *retryablehttp.Client, url string, limit int64) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// leveled adapts a zap sugared logger to retryablehttp.LeveledLogger.
type leveled struct {
	l *zap.SugaredLogger
}

func (z leveled) Error(msg string, kv ...any) { z.l.Errorw(msg, kv...) }
func (z leveled) Info(msg string, kv ...any)  { z.l.Debugw(msg, kv...) }
func (z leveled) Debug(msg string, kv ...any) { z.l.Debugw(msg, kv...) }
func (z leveled) Warn(msg string, kv ...any)  { z.l.Warnw(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveled{}
