package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Remote reads one HTTP(S) location as a pipeline input.
type Remote struct {
	url    string
	client *Client
}

// NewRemote returns a Remote for url with a small default retry budget.
func NewRemote(url string) *Remote {
	return NewRemoteWithClient(url, NewClient(Config{MaxRetries: 2}))
}

// NewRemoteWithClient returns a Remote that fetches through client.
func NewRemoteWithClient(url string, client *Client) *Remote {
	return &Remote{url: url, client: client}
}

// Name returns the URL.
func (r *Remote) Name() string { return r.url }

// Open issues a GET and hands back the response body. Any status other than
// 200 is an error; the body is closed in that case.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: unexpected status %d", r.url, resp.StatusCode)
	}
	return resp.Body, nil
}
