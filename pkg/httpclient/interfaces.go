package httpclient

import (
	"context"
	"net/http"
	"time"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// BasicAuth carries HTTP Basic credentials for a single request.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes one outbound call. Body may be []byte (sent raw) or any JSON-serializable value.
// A positive Timeout bounds the whole call, including reading the response body.
type Request struct {
	Method    string
	URL       string
	Headers   map[string]string
	Query     map[string]string
	Body      any
	BasicAuth *BasicAuth
	Timeout   time.Duration
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// IsSuccess reports whether the response carries a 2xx status.
func IsSuccess(resp Response) bool {
	return resp != nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300
}
