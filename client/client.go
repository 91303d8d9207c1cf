// Package client talks to the Shikkhaloy API: session primitives plus the profile & roster
// calls the portal needs. Every call returns a typed value or an error, a *APIError when the
// server answered.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

const defaultTimeout = 30 * time.Second

type Options struct {
	BaseURL  string
	Timeout  time.Duration  // per request, defaults to 30s
	Storage  SessionStorage // defaults to memory
	Language i18n.Language  // language of the server messages
	HTTP     *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	storage SessionStorage

	mu      sync.Mutex
	lang    i18n.Language
	session *Session
	subs    map[int]AuthListener
	nextSub int
}

// New restores any session kept by opts.Storage; it is checked against the server by GetSession.
func New(opts Options) (*Client, error) {
	if opts.Storage == nil {
		opts.Storage = NewMemoryStorage()
	}
	if opts.HTTP == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		opts.HTTP = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTP,
		storage: opts.Storage,
		lang:    i18n.ParseLanguage(opts.Language.String(), i18n.Default),
		subs:    make(map[int]AuthListener),
	}

	sess, err := opts.Storage.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	c.session = sess
	return c, nil
}

func (c *Client) SetLanguage(lang i18n.Language) {
	c.mu.Lock()
	c.lang = i18n.ParseLanguage(lang.String(), c.lang)
	c.mu.Unlock()
}

func (c *Client) Language() i18n.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// send performs the request and returns the response with its body read; non-2xx answers
// come back as *APIError.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in interface{}) (*http.Response, []byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, nil, errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept-Language", c.Language().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "api request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= 300 {
		return nil, nil, parseAPIError(resp.StatusCode, data)
	}
	return resp, data, nil
}

// do is send for JSON endpoints, decoding the answer into `out` (when not nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	_, data, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decoding response")
}

// LookupEmailByMobile resolves a mobile number to the email of its account.
func (c *Client) LookupEmailByMobile(ctx context.Context, mobile string) (string, error) {
	var out struct {
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/profiles/lookup", url.Values{"mobile": {mobile}}, nil, &out); err != nil {
		return "", err
	}
	return out.Email, nil
}

func (c *Client) GetProfile(ctx context.Context) (user.Profile, error) {
	var prof user.Profile
	err := c.do(ctx, http.MethodGet, "/v1/profiles/me", nil, nil, &prof)
	return prof, err
}

// UpdateProfile returns the updated profile even when rewriting the stored session fails.
func (c *Client) UpdateProfile(ctx context.Context, pu user.ProfileUpdate) (user.Profile, error) {
	var prof user.Profile
	if err := c.do(ctx, http.MethodPut, "/v1/profiles/me", nil, pu, &prof); err != nil {
		return user.Profile{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Profile = prof
		if err := c.storage.Save(c.session); err != nil {
			return prof, errors.Wrap(err, "storing session")
		}
	}
	return prof, nil
}

// RequestPasswordReset returns the server notice, identical whether or not the account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var out struct {
		Success string `json:"success"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/auth/password-reset", nil, map[string]string{"email": email}, &out)
	return out.Success, err
}
