package woleet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.woleet.io/v1"

var (
	ErrTxNotFound = errors.New("tx_not_found")
	ErrNotFound   = errors.New("not_found")
)

// RequestError is returned for any response other than 200, 201 or 404,
// and for transport failures (Code 0).
type RequestError struct {
	Code    int
	Message string
	Body    []byte
}

func (e *RequestError) Error() string {
	if e.Code == 0 {
		return "getJSON: " + e.Message
	}
	return fmt.Sprintf("getJSON: %d %s", e.Code, e.Message)
}

var sha256RegExp = regexp.MustCompile(`^[A-Fa-f0-9]{64}$`)

// IsSHA256 reports whether s is a hex-encoded SHA-256 digest.
func IsSHA256(s string) bool {
	return sha256RegExp.MatchString(s)
}

// Client talks to the anchoring API and to the transaction providers.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	// provider endpoints; overridable for tests
	chainSoURL     string
	blockcypherURL string

	provider Provider
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") }
}

func WithToken(token string) ClientOption {
	return func(c *Client) { c.Token = token }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.HTTP = hc }
}

func WithProvider(p Provider) ClientOption {
	return func(c *Client) { c.SetDefaultProvider(string(p)) }
}

func withProviderURLs(chainSo, blockcypher string) ClientOption {
	return func(c *Client) {
		c.chainSoURL = chainSo
		c.blockcypherURL = blockcypher
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:        DefaultBaseURL,
		HTTP:           &http.Client{Timeout: 30 * time.Second},
		chainSoURL:     "https://chain.so/api/v2",
		blockcypherURL: "https://api.blockcypher.com/v1/btc/main",
		provider:       ProviderWoleet,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// getJSON performs one request. It reports found=false for a 404 and
// decodes the body into out for 200 and 201.
func (c *Client) getJSON(ctx context.Context, method, url string, data any, out any) (found bool, err error) {
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return false, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &RequestError{Code: resp.StatusCode, Message: err.Error()}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return true, nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("decode %s: %w", url, err)
		}
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		msg := http.StatusText(resp.StatusCode)
		if msg == "" {
			msg = "Error while getting data"
		}
		return false, &RequestError{Code: resp.StatusCode, Message: msg, Body: raw}
	}
}
