// Package svcclient is the pooled HTTP client services use to call each other.
package svcclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Response is a fully read backend reply.
type Response struct {
	Status int
	Body   []byte
}

type Client struct {
	rc   *resty.Client
	base string
}

// New returns a client that prefixes every path with base. An empty base
// means callers pass absolute URLs.
func New(base string, timeout time.Duration, poolSize int) *Client {
	if poolSize <= 0 {
		poolSize = 10
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        poolSize * 4,
		MaxIdleConnsPerHost: poolSize,
		IdleConnTimeout:     90 * time.Second,
	}
	rc := resty.New().
		SetTransport(tr).
		SetTimeout(timeout).
		SetRetryCount(0)
	return &Client{rc: rc, base: base}
}

func (c *Client) Get(ctx context.Context, path string) (Response, error) {
	resp, err := c.request(ctx).Get(c.base + path)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode(), Body: resp.Body()}, nil
}

// Post sends body verbatim as application/json. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body []byte) (Response, error) {
	req := c.request(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(c.base + path)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode(), Body: resp.Body()}, nil
}

func (c *Client) Close() {
	c.rc.GetClient().CloseIdleConnections()
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rc.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID(ctx))
}

// requestID carries chi's request id downstream so one client action can be
// followed across services; calls made outside a request get a fresh id.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
