// Package netx is the JSON-over-HTTP plumbing shared by the remote gateways.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fincoval/creditsync/internal/common"
)

const maxBody = 32 << 20

type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient returns a client whose every request is bounded by timeout, both
// through http.Client.Timeout and a context deadline.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}, timeout: timeout}
}

// Wrap layers middleware over the client's transport.
func (c *Client) Wrap(mw func(http.RoundTripper) http.RoundTripper) {
	next := c.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.http.Transport = mw(next)
}

type Response struct {
	Status int
	Body   []byte
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &common.RemoteError{Kind: common.ErrRemoteRejected, Status: r.Status, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// Snippet is a short printable form of the body for error messages.
func (r *Response) Snippet() string {
	s := strings.TrimSpace(string(r.Body))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

// Do sends body as JSON (when non-nil) and returns the response whatever its
// status. Transport failures and timeouts come back as ErrRemoteUnavailable.
func (c *Client) Do(ctx context.Context, method, rawURL string, header http.Header, body any) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &common.RemoteError{Kind: common.ErrRemoteUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &common.RemoteError{Kind: common.ErrRemoteUnavailable, Status: resp.StatusCode, Message: err.Error()}
	}
	return &Response{Status: resp.StatusCode, Body: b}, nil
}

// BuildURL appends the already-escaped path to base and adds query. Empty
// query values are kept so remote APIs see the parameter.
func BuildURL(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("bad url %q: %w", base, err)
	}
	if path != "" {
		u = u.JoinPath(strings.TrimLeft(path, "/"))
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
