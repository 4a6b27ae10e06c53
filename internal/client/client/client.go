package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
	"github.com/dmitrijs2005/campusmarket/internal/common"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
	"github.com/google/uuid"
)

// DefaultTimeout applies when New is given a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// Request describes one backend call. Anonymous requests carry no bearer
// credential and never trigger a token refresh.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Anonymous bool
}

type HTTPClient struct {
	baseURL   string
	http      *http.Client
	transport *authTransport
	store     tokens.Store
	logger    logging.Logger
}

// New builds a client for the backend at baseURL. base is the underlying
// round tripper; nil means http.DefaultTransport.
func New(baseURL string, timeout time.Duration, store tokens.Store, logger logging.Logger, base http.RoundTripper) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL = strings.TrimRight(baseURL, "/")
	t := newAuthTransport(base, store, baseURL, timeout, logger)
	return &HTTPClient{
		baseURL:   baseURL,
		http:      &http.Client{Transport: t, Timeout: timeout},
		transport: t,
		store:     store,
		logger:    logger,
	}
}

// Tokens exposes the store the client reads credentials from.
func (c *HTTPClient) Tokens() tokens.Store {
	return c.store
}

// OnAuthExpired registers fn to run after an unrecoverable 401 has cleared
// the stored tokens.
func (c *HTTPClient) OnAuthExpired(fn func()) {
	c.transport.onExpired(fn)
}

// Do sends req and decodes a successful JSON response into out. A nil out
// discards the body.
func (c *HTTPClient) Do(ctx context.Context, req Request, out any) error {
	op := req.Method + " " + req.Path

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	if req.Anonymous {
		ctx = withAnonymous(ctx)
	}

	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(common.RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", common.ContentTypeJSON)
	if body != nil {
		httpReq.Header.Set("Content-Type", common.ContentTypeJSON)
	}

	log := c.logger.With("op", op, "request_id", requestID)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		err = classify(ctx, op, err)
		log.Debug(ctx, "request failed", "error", err, "elapsed", time.Since(start))
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, op, err)
	}
	log.Debug(ctx, "request done", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(req, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func classify(ctx context.Context, op string, err error) error {
	var ae *AuthExpiredError
	if errors.As(err, &ae) {
		return ae
	}
	var se *storeError
	if errors.As(err, &se) {
		return fmt.Errorf("%s: %w", op, se)
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}
	return &NetworkError{Op: op, Err: err}
}

func statusError(req Request, status int, raw []byte) error {
	var obj map[string]any
	isObject := json.Unmarshal(raw, &obj) == nil && obj != nil

	validation := status == http.StatusBadRequest || status == http.StatusUnprocessableEntity
	if (validation && isObject) || (status == http.StatusUnauthorized && req.Anonymous) {
		return newValidationError(status, obj)
	}

	msg := DefaultMessage
	if isObject {
		msg = apiMessage(obj)
	}
	return &APIError{Status: status, Payload: json.RawMessage(raw), Message: msg}
}
