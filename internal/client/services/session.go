package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
)

// MinPasswordLength is the shortest password accepted by Register.
const MinPasswordLength = 8

var ErrNotAuthenticated = errors.New("not authenticated")

type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SessionState is an immutable snapshot of who is logged in.
type SessionState struct {
	Status    Status
	User      *models.User
	Loading   bool
	LastError error
	// Expired is set when the backend ended the session on its own, so the
	// front end can send the user back to login.
	Expired bool
}

// SessionStore is the single source of truth for the current session.
type SessionStore struct {
	api    SessionAPI
	tokens tokens.Store
	logger logging.Logger

	mu      sync.Mutex
	state   SessionState
	subs    map[int]func(SessionState)
	nextSub int
}

// NewSessionStore returns a store in the Unknown state and hooks it to the
// backend's auth-expired notifications.
func NewSessionStore(api SessionAPI, store tokens.Store, logger logging.Logger) *SessionStore {
	s := &SessionStore{
		api:    api,
		tokens: store,
		logger: logger,
		state:  SessionState{Status: StatusUnknown, Loading: true},
		subs:   make(map[int]func(SessionState)),
	}
	api.OnAuthExpired(s.expire)
	return s
}

func (s *SessionStore) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() SessionState {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Subscribe calls fn after every state change until cancel is called.
func (s *SessionStore) Subscribe(fn func(SessionState)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) update(fn func(*SessionState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotLocked()
	subs := make([]func(SessionState), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()

	for _, f := range subs {
		f(snap)
	}
}

// LoadUser restores the session from stored tokens. It never fails: errors
// end up in LastError and the state falls back to Anonymous.
func (s *SessionStore) LoadUser(ctx context.Context) {
	s.update(func(st *SessionState) { st.Loading = true })

	access, err := s.tokens.Access(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to read access token", "error", err)
		s.update(func(st *SessionState) {
			*st = SessionState{Status: StatusAnonymous, LastError: err, Expired: st.Expired}
		})
		return
	}
	if access == "" {
		s.update(func(st *SessionState) {
			*st = SessionState{Status: StatusAnonymous, Expired: st.Expired}
		})
		return
	}

	u, err := s.api.CurrentUser(ctx)
	switch {
	case err == nil:
		s.update(func(st *SessionState) {
			*st = SessionState{Status: StatusAuthenticated, User: &u}
		})
	case client.IsAuthError(err):
		s.logger.Info(ctx, "stored session rejected", "error", err)
		s.clearTokens(ctx)
		s.update(func(st *SessionState) {
			*st = SessionState{Status: StatusAnonymous, Expired: st.Expired}
		})
	default:
		s.logger.Warn(ctx, "failed to load user", "error", err)
		s.update(func(st *SessionState) {
			st.Loading = false
			st.LastError = err
			if st.Status != StatusAuthenticated {
				st.Status = StatusAnonymous
				st.User = nil
			}
		})
	}
}

// Login authenticates with email and password. Rejected credentials surface
// as *client.ValidationError.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	s.begin()

	pair, err := s.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("login: %w", err))
	}
	return s.establish(ctx, pair, nil)
}

// Register validates the form locally, creates the account and signs in.
func (s *SessionStore) Register(ctx context.Context, req models.RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if ve := validateRegistration(req); ve != nil {
		s.update(func(st *SessionState) {
			st.LastError = ve
			if st.Status == StatusUnknown {
				st.Status = StatusAnonymous
				st.Loading = false
			}
		})
		return ve
	}

	s.begin()
	u, pair, err := s.api.Register(ctx, req)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("register: %w", err))
	}
	return s.establish(ctx, pair, &u)
}

func validateRegistration(req models.RegisterRequest) *client.ValidationError {
	fields := make(map[string][]string)
	if req.Email == "" {
		fields["email"] = []string{"Email is required"}
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = []string{"Enter a valid email address"}
	}
	if len(req.Password) < MinPasswordLength {
		fields["password"] = []string{fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	}
	if req.Password != req.Password2 {
		fields["password2"] = []string{"Passwords do not match"}
	}
	if len(fields) == 0 {
		return nil
	}
	return client.NewValidationError(0, fields)
}

func (s *SessionStore) begin() {
	s.update(func(st *SessionState) {
		st.Loading = true
		st.LastError = nil
	})
}

// establish persists pair and moves to Authenticated. When the backend did
// not send the user along, it is fetched.
func (s *SessionStore) establish(ctx context.Context, pair tokens.Pair, u *models.User) error {
	if err := s.tokens.Save(ctx, pair); err != nil {
		return s.fail(ctx, fmt.Errorf("save tokens: %w", err))
	}
	if u == nil {
		fetched, err := s.api.CurrentUser(ctx)
		if err != nil {
			s.clearTokens(ctx)
			return s.fail(ctx, fmt.Errorf("fetch user: %w", err))
		}
		u = &fetched
	}

	s.logger.Info(ctx, "signed in", "user_id", u.ID)
	s.update(func(st *SessionState) {
		*st = SessionState{Status: StatusAuthenticated, User: u}
	})
	return nil
}

func (s *SessionStore) fail(ctx context.Context, err error) error {
	var ve *client.ValidationError
	if !errors.As(err, &ve) {
		s.logger.Warn(ctx, "session operation failed", "error", err)
	}
	s.update(func(st *SessionState) {
		st.Loading = false
		st.LastError = err
		if st.Status != StatusAuthenticated {
			st.Status = StatusAnonymous
		}
	})
	return err
}

// Logout forgets the session. It always succeeds and may be called any
// number of times.
func (s *SessionStore) Logout(ctx context.Context) {
	s.clearTokens(ctx)
	s.update(func(st *SessionState) {
		*st = SessionState{Status: StatusAnonymous}
	})
}

func (s *SessionStore) ClearError() {
	s.update(func(st *SessionState) {
		st.LastError = nil
		st.Expired = false
	})
}

// UpdateProfile patches the signed-in user's profile and adopts what the
// server stored.
func (s *SessionStore) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	if s.Snapshot().Status != StatusAuthenticated {
		return models.User{}, ErrNotAuthenticated
	}

	p, err := s.api.UpdateProfile(ctx, upd)
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}

	var out models.User
	s.update(func(st *SessionState) {
		if st.User == nil {
			return
		}
		u := *st.User
		u.Profile = p
		st.User = &u
		out = u
	})
	return out, nil
}

func (s *SessionStore) expire() {
	s.logger.Info(context.Background(), "session expired by backend")
	s.update(func(st *SessionState) {
		*st = SessionState{Status: StatusAnonymous, Expired: true}
	})
}

func (s *SessionStore) clearTokens(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error(ctx, "failed to clear tokens", "error", err)
	}
}
