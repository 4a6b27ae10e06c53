package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
	"github.com/dmitrijs2005/campusmarket/internal/common"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/api/auth/token/refresh/"

type anonymousKey struct{}

func withAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// storeError marks token store failures so they are not mistaken for
// network failures.
type storeError struct{ err error }

func (e *storeError) Error() string { return "token store: " + e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

// authTransport attaches bearer credentials and recovers from expired access
// tokens with a single shared refresh.
type authTransport struct {
	base           http.RoundTripper
	store          tokens.Store
	refreshURL     string
	refreshTimeout time.Duration
	logger         logging.Logger

	group singleflight.Group

	mu    sync.Mutex
	hooks []func()
}

func newAuthTransport(base http.RoundTripper, store tokens.Store, baseURL string, refreshTimeout time.Duration, logger logging.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{
		base:           base,
		store:          store,
		refreshURL:     baseURL + refreshPath,
		refreshTimeout: refreshTimeout,
		logger:         logger,
	}
}

func (t *authTransport) onExpired(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, fn)
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)
	if req.Header.Get(common.RequestIDHeader) == "" {
		req.Header.Set(common.RequestIDHeader, uuid.NewString())
	}

	if isAnonymous(ctx) {
		return t.base.RoundTrip(req)
	}

	sent, err := t.store.Access(ctx)
	if err != nil {
		return nil, &storeError{err: err}
	}
	authorize(req, sent)

	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	drain(resp)

	current, err := t.store.Access(ctx)
	if err != nil {
		return nil, &storeError{err: err}
	}
	if current == "" || current == sent {
		if err := t.refresh(ctx, sent); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, t.expire(ctx, sent, err)
		}
		if current, err = t.store.Access(ctx); err != nil {
			return nil, &storeError{err: err}
		}
	} else {
		t.logger.Debug(ctx, "access token changed while request was in flight, replaying")
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		retry.Body = body
	}
	authorize(retry, current)

	resp, err = t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return nil, t.expire(ctx, current, fmt.Errorf("replay of %s %s rejected", req.Method, req.URL.Path))
	}
	return resp, nil
}

func authorize(req *http.Request, access string) {
	req.Header.Del("Authorization")
	if access == "" {
		return
	}
	(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(req)
}

// refresh exchanges the stored refresh token for a new access token. Callers
// that arrive while a refresh is running wait for its outcome instead of
// starting their own; a flight that finds the access token already replaced
// since stale was sent does nothing.
func (t *authTransport) refresh(ctx context.Context, stale string) error {
	ch := t.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.refreshTimeout)
		defer cancel()
		current, err := t.store.Access(rctx)
		if err != nil {
			return nil, &storeError{err: err}
		}
		if current != "" && current != stale {
			return nil, nil
		}
		return nil, t.doRefresh(rctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *authTransport) doRefresh(ctx context.Context) error {
	refresh, err := t.store.Refresh(ctx)
	if err != nil {
		return &storeError{err: err}
	}
	if refresh == "" {
		return ErrNoRefreshToken
	}

	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", common.ContentTypeJSON)
	req.Header.Set(common.RequestIDHeader, uuid.NewString())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("refresh: unexpected status %d", resp.StatusCode)
	}

	var pair tokens.Pair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return fmt.Errorf("refresh: decode response: %w", err)
	}
	if pair.Access == "" {
		return fmt.Errorf("refresh: response has no access token")
	}

	if pair.Refresh == "" {
		err = t.store.SetAccess(ctx, pair.Access)
	} else {
		err = t.store.Save(ctx, pair)
	}
	if err != nil {
		return &storeError{err: err}
	}

	t.logger.Info(ctx, "access token refreshed")
	return nil
}

// expire ends the session whose access token rejected could not be renewed.
// If the store already holds a different token, a newer session replaced it while
// the request was in flight; that session is left alone.
func (t *authTransport) expire(ctx context.Context, rejected string, cause error) error {
	current, err := t.store.Access(ctx)
	if err == nil && current != "" && current != rejected {
		t.logger.Info(ctx, "rejected credentials already replaced, keeping session", "error", cause)
		return fmt.Errorf("%w: %v", ErrStaleCredentials, cause)
	}

	t.logger.Warn(ctx, "session expired", "error", cause)
	if err := t.store.Clear(ctx); err != nil {
		t.logger.Error(ctx, "failed to clear tokens", "error", err)
	}

	t.mu.Lock()
	hooks := append([]func(){}, t.hooks...)
	t.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return &AuthExpiredError{Err: cause}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
