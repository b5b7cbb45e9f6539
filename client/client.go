// Package client is the typed request boundary to the panel API. It owns
// credential injection and uniform error normalization; retry policy, if
// any, belongs to callers.
package client

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"

	"github.com/zenvpn/zen-console/util/json_util"
)

// TokenProvider supplies the current session credential, or "" when logged out.
type TokenProvider func() string

// Client talks to the panel API. All methods are safe for concurrent use.
type Client struct {
	http           *resty.Client
	token          TokenProvider
	onUnauthorized func()
}

// New creates a client for the panel at baseURL, e.g.
// "https://panel.example.com/api". A zero timeout disables the limit.
func New(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Client{http: httpClient}
}

// SetTokenProvider installs the credential source used for every request.
func (c *Client) SetTokenProvider(fn TokenProvider) { c.token = fn }

// SetOnUnauthorized installs the hook invoked when the server rejects the
// credential, before the auth error is returned.
func (c *Client) SetOnUnauthorized(fn func()) { c.onUnauthorized = fn }

// envelope is the wire shape of every panel response.
type envelope struct {
	Success bool                 `json:"success"`
	Data    json_util.RawMessage `json:"data"`
	Message string               `json:"message"`
	Error   string               `json:"error"`
}

func (e *envelope) text(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

// do issues one request and decodes the envelope's data into out (when out
// is non-nil). Failures come back as *Error; nothing is retried here.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	op := method + " " + path

	req := c.http.R().SetContext(ctx)
	if c.token != nil {
		if token := c.token(); token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Message: err.Error()}
	}

	var env envelope
	// Tolerate an empty or non-JSON body; status handling below still applies.
	_ = json.Unmarshal(resp.Body(), &env)

	status := resp.StatusCode()
	if status == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &Error{Kind: KindAuth, Status: status, Op: op, Message: env.text("authentication required")}
	}
	if status >= 400 || (status < 300 && !env.Success && len(resp.Body()) > 0) {
		return &Error{
			Kind:    kindForStatus(status),
			Status:  status,
			Op:      op,
			Message: env.text(http.StatusText(status)),
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindTransient, Status: status, Op: op, Message: "malformed response: " + err.Error()}
		}
	}
	return nil
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindTransient
	}
}
