package client

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type AuthEvent string

const (
	SignedIn       AuthEvent = "SIGNED_IN"
	SignedOut      AuthEvent = "SIGNED_OUT"
	TokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthListener receives the auth-state changes; `sess` is nil on SignedOut.
type AuthListener func(event AuthEvent, sess *Session)

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Profile   user.Profile `json:"profile"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	Profile   user.Profile `json:"profile"`
}

func (r sessionResponse) session() *Session {
	return &Session{Token: r.Token, ExpiresAt: time.Unix(r.ExpiresAt, 0).UTC(), Profile: r.Profile}
}

// OnAuthStateChange registers fn until the returned func is called.
func (c *Client) OnAuthStateChange(fn AuthListener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// emit calls the listeners outside of the lock, in subscription order.
func (c *Client) emit(event AuthEvent, sess *Session) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]AuthListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		var cp *Session
		if sess != nil {
			s := *sess
			cp = &s
		}
		fn(event, cp)
	}
}

func (c *Client) setSession(sess *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	if sess == nil {
		return c.storage.Clear()
	}
	return c.storage.Save(sess)
}

func (c *Client) startSession(ctx context.Context, path string, in interface{}, event AuthEvent) (*Session, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, path, nil, in, &resp); err != nil {
		return nil, err
	}
	sess := resp.session()
	if err := c.setSession(sess); err != nil {
		return nil, errors.Wrap(err, "storing session")
	}
	c.emit(event, sess)
	out := *sess
	return &out, nil
}

// SignUp creates the account with its profile and signs it in.
func (c *Client) SignUp(ctx context.Context, reg user.Registration) (*Session, error) {
	return c.startSession(ctx, "/v1/auth/signup", reg, SignedIn)
}

func (c *Client) SignInWithPassword(ctx context.Context, email, pwd string) (*Session, error) {
	return c.startSession(ctx, "/v1/auth/login", map[string]string{"email": email, "password": pwd}, SignedIn)
}

// RefreshSession swaps the current token for a fresh one.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	if c.token() == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "no session"}
	}
	return c.startSession(ctx, "/v1/auth/token-refresh", nil, TokenRefreshed)
}

// SignOut revokes the token remotely; the local session is cleared whatever the outcome,
// and the remote error (if any) is returned.
func (c *Client) SignOut(ctx context.Context) error {
	var remoteErr error
	if c.token() != "" {
		remoteErr = c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, nil)
	}
	if err := c.setSession(nil); err != nil && remoteErr == nil {
		remoteErr = errors.Wrap(err, "clearing session")
	}
	c.emit(SignedOut, nil)
	return remoteErr
}

// GetSession returns the current session once the server confirmed it, or nil when signed out.
// A session the server rejects is dropped.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()
	if current == nil {
		return nil, nil
	}
	if current.Expired(time.Now()) {
		if err := c.setSession(nil); err != nil {
			return nil, errors.Wrap(err, "clearing expired session")
		}
		return nil, nil
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/auth/session", nil, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			if err := c.setSession(nil); err != nil {
				return nil, errors.Wrap(err, "clearing rejected session")
			}
			return nil, nil
		}
		return nil, err
	}
	sess := resp.session()
	if err := c.setSession(sess); err != nil {
		return nil, errors.Wrap(err, "storing session")
	}
	out := *sess
	return &out, nil
}
