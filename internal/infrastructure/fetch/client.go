package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
)

const maxBodyBytes = 32 << 20

// LocalReader serves URLs the process itself issued without a network round trip.
type LocalReader interface {
	ReadURL(rawURL string) (data []byte, ok bool, err error)
}

// Client downloads blobs by URL.
type Client struct {
	local      LocalReader
	httpClient *http.Client
	maxBody    int64
}

func New(local LocalReader, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		local:      local,
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxBodyBytes,
	}
}

// Fetch maps 404 to domain.ErrNotFound and 408/429/5xx to domain.ErrTemporary.
// A body over the size limit is domain.ErrInvalidInput, never a truncated blob.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.local != nil {
		data, ok, err := c.local.ReadURL(url)
		if ok {
			return data, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.WrapError(domain.ErrTemporary, "fetch", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.WrapError(domain.ErrNotFound, "fetch", fmt.Errorf("%s: %s", url, resp.Status))
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, domain.WrapError(domain.ErrTemporary, "fetch", fmt.Errorf("%s: %s", url, resp.Status))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "fetch body", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch body", fmt.Errorf("%s: body exceeds %d bytes", url, c.maxBody))
	}
	return data, nil
}
