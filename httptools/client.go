package httptools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/couchbase/couchdb-cluster-setup/aprov"
	"github.com/couchbase/couchdb-cluster-setup/errutil"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/netutil"
	"github.com/couchbase/couchdb-cluster-setup/retry"
)

// Client sends requests to nodes, attaching credentials, throttling, logging and retrying idempotent requests which
// fail with a temporary error.
type Client struct {
	client         *http.Client
	reqResLogLevel log.Level
	logger         log.WrappedLogger
	requestRetries int
	authProvider   aprov.Provider
	limiter        *rate.Limiter
}

// ClientOptions wraps all optional parameters for client creation.
type ClientOptions struct {
	// RequestRetries is the number of times an idempotent request is attempted, defaults to 'DefaultRequestRetries'.
	RequestRetries int

	// ReqResLogLevel is the level at which each request/response is logged.
	ReqResLogLevel log.Level

	// Limiter throttles outgoing requests, including retries; a nil limiter means requests aren't throttled.
	Limiter *rate.Limiter
}

// NewClient creates a new REST client which sends requests using the given http client, authenticating with the
// credentials returned by the provider. The logger may be nil.
func NewClient(client *http.Client, authProvider aprov.Provider, logger log.Logger, options ClientOptions) *Client {
	if options.RequestRetries <= 0 {
		options.RequestRetries = DefaultRequestRetries
	}

	return &Client{
		client:         client,
		reqResLogLevel: options.ReqResLogLevel,
		requestRetries: options.RequestRetries,
		authProvider:   authProvider,
		limiter:        options.Limiter,
		logger:         log.NewWrappedLogger(logger),
	}
}

// Execute sends the request, reading the entire response body. Idempotent requests are retried on temporary failures,
// any other request is attempted exactly once since the node may have applied it even when we didn't get an answer.
//
// NOTE: When the request completed with an unexpected status code, the response is returned alongside the error.
func (c *Client) Execute(ctx context.Context, request *Request) (*Response, error) {
	attempts := 1
	if request.idempotent() {
		attempts = c.requestRetries
	}

	retryer := retry.NewRetryer(retry.RetryerOptions[*http.Response]{
		MaxRetries: attempts,
		ShouldRetry: func(ctx *retry.Context, resp *http.Response, err error) bool {
			return c.retry(ctx, request, resp, err)
		},
		Log: func(ctx *retry.Context, resp *http.Response, err error) {
			c.logRetry(ctx, request, resp, err)
		},
		Cleanup: c.CleanupResp,
	})

	resp, err := retryer.DoWithContext(ctx, func(ctx *retry.Context) (*http.Response, error) {
		return c.send(ctx, request) //nolint:bodyclose
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", c.exhausted(retryer.MaxRetries(), request, resp, err))
	}

	return c.complete(request, resp)
}

// exhausted converts the error returned once retries are exhausted into something more informative, cleaning up the
// last response.
func (c *Client) exhausted(attempts int, request *Request, resp *http.Response, err error) error {
	defer c.CleanupResp(resp)

	if !retry.IsRetriesExhausted(err) {
		return err
	}

	return &RetriesExhaustedError{retries: attempts, err: enhanceError(errors.Unwrap(err), request, resp)}
}

// complete reads the body of the given response, converting unexpected status codes into informative errors.
func (c *Client) complete(request *Request, resp *http.Response) (*Response, error) {
	defer c.CleanupResp(resp)

	body, err := ReadBody(request.Method, request.Endpoint, resp.Body, resp.ContentLength)
	if err != nil {
		return &Response{StatusCode: resp.StatusCode}, fmt.Errorf("failed to read response body: %w", err)
	}

	response := &Response{StatusCode: resp.StatusCode, Body: body}

	if response.StatusCode == request.ExpectedStatusCode {
		return response, nil
	}

	return response, HandleResponseError(request.Method, request.Endpoint, response.StatusCode, response.Body)
}

// send builds and performs a single attempt of the given request.
//
// NOTE: If the returned error is nil, the response has a non-nil body which the caller is expected to close.
func (c *Client) send(ctx *retry.Context, request *Request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, string(request.Method), request.Host+string(request.Endpoint),
		bytes.NewReader(request.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req = SetAuthHeaders(*req, request.Host, c.authProvider)
	req.Header.Set("Content-Type", ContentTypeJSON)
	req.Header.Set("Accept", ContentTypeJSON)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	c.logger.Log(c.reqResLogLevel, "(REST) (Attempt %d) (%s) Dispatching request to '%s'", ctx.Attempt(), req.Method,
		log.UserDataValue(req.URL.Redacted()))

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Errorf("(REST) (Attempt %d) (%s) Failed to perform request to '%s': %s", ctx.Attempt(), req.Method,
			log.UserDataValue(req.URL.Redacted()), err)

		return nil, fmt.Errorf("failed to perform request: %w", HandleRequestError(req, err))
	}

	c.logger.Log(c.reqResLogLevel, "(REST) (Attempt %d) (%s) (%d) Received response from '%s'", ctx.Attempt(),
		req.Method, resp.StatusCode, log.UserDataValue(req.URL.Redacted()))

	return resp, nil
}

// retry returns a boolean indicating whether another attempt should be made. A '503' carrying a 'Retry-After' header
// blocks until the node asked us to come back.
func (c *Client) retry(ctx *retry.Context, request *Request, resp *http.Response, err error) bool {
	if !request.idempotent() {
		return false
	}

	if resp == nil {
		return ShouldRetry(err)
	}

	if resp.StatusCode == request.ExpectedStatusCode || !netutil.IsTemporaryFailure(resp.StatusCode) {
		return false
	}

	waitForRetryAfter(ctx, resp)

	return true
}

// logRetry is run before every retry; this isn't an error since the caller handles a request which ultimately fails.
func (c *Client) logRetry(ctx *retry.Context, request *Request, resp *http.Response, err error) {
	reason := fmt.Sprintf("error: %s", err)
	if err == nil {
		reason = fmt.Sprintf("status code %d", resp.StatusCode)
	}

	c.logger.Warnf("(REST) (Attempt %d) (%s) Retrying request to endpoint '%s' which failed with %s", ctx.Attempt(),
		request.Method, request.Endpoint, reason)
}

// CleanupResp drains the response body and ensures it's closed.
func (c *Client) CleanupResp(resp *http.Response) {
	if resp == nil {
		return
	}

	defer resp.Body.Close()

	_, err := io.Copy(io.Discard, resp.Body)
	if err == nil ||
		errors.Is(err, http.ErrBodyReadAfterClose) ||
		errutil.Contains(err, "http: read on closed response body") {
		return
	}

	c.logger.Warnf("(REST) Failed to drain response body due to unexpected error: %s", err)
}
