package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikkhaloy/shikkhaloy/apps/api/echo"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/insight"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	"github.com/shikkhaloy/shikkhaloy/storage/session"
	"github.com/shikkhaloy/shikkhaloy/tests"
)

const testPwd = "Kh@t@-b0i-42"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
)

type env struct {
	app echoapi.Server
	svc *testutil.Services
}

// setup builds a server on top of in-memory services; `configure` may tweak the config first.
func setup(t *testing.T, configure ...func(conf *core.Config)) *env {
	t.Helper()
	return setupWithDeps(t, func(deps *echoapi.Deps) {
		for _, fn := range configure {
			fn(deps.Conf)
		}
	})
}

// setupWithDeps lets `tweak` swap any dependency before the server is built.
func setupWithDeps(t *testing.T, tweak func(deps *echoapi.Deps)) *env {
	t.Helper()
	svc := testutil.NewServices(t)
	deps := &echoapi.Deps{
		Conf:       svc.Conf,
		Logger:     svc.Logger,
		Validate:   svc.Validate,
		Uni:        svc.Uni,
		UserSvc:    svc.UserSvc,
		StudentSvc: svc.StudentSvc,
		InsightSvc: insight.NewService(nil, svc.Logger),
		Sessions:   sessionstore.NewMemoryStore(),
	}
	if tweak != nil {
		tweak(deps)
	}

	app := echoapi.NewServer(&echoapi.Options{DisableReqLogs: true}, deps)
	t.Cleanup(func() { _ = app.Close() })
	return &env{app: app, svc: svc}
}

// createUser stores an active account whose password is testPwd.
func (e *env) createUser(t *testing.T, name, mobile, email string) (user.User, user.Profile) {
	t.Helper()
	return testutil.CreateUser(t, e.svc.UserRepo, name, mobile, email, testPwd, true)
}

// getToken logs `email` in through the API.
func (e *env) getToken(t *testing.T, email string) string {
	t.Helper()
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", marshalObj(t, echoapi.LoginRequest{Email: email, Password: testPwd}))
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *env) do(method, path, token string, body ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, body...)
	e.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	require.NoError(t, err)
	return data
}

func (e *env) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
