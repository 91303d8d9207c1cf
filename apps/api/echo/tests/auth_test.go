package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikkhaloy/shikkhaloy/apps/api/echo"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	"github.com/shikkhaloy/shikkhaloy/services/email"
)

func Test_authApi_signup(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")

	reg := func(name, mobile, email, pwd string) []byte {
		return marshalObj(t, user.Registration{Name: name, Mobile: mobile, Email: email, Password: pwd})
	}
	msgs := i18n.M(i18n.EN)

	tests := []httpTest{
		{name: "email taken", body: reg("Karim", "01722222222", "RAHIM@test.bd", "n0t-s0-s!mple"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": msgs.AccountExists})},
		{name: "mobile taken", body: reg("Karim", "017-1111 1111", "karim@test.bd", "n0t-s0-s!mple"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"mobile": msgs.AccountExists})},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/signup"
	}
	e.run(t, tests)

	t.Run("invalid payload", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/auth/signup", "", reg("", "", "nope", "123"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fields map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
		for _, fld := range []string{"name", "mobile", "email", "password"} {
			assert.Contains(t, fields, fld)
		}
	})

	t.Run("signed up", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/auth/signup", "", reg("Karim Uddin", "01722222222", "Karim@Test.bd", "n0t-s0-s!mple"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.NotZero(t, resp.ExpiresAt)
		assert.Equal(t, "Karim Uddin", resp.Profile.Name)
		assert.Equal(t, "karim@test.bd", resp.Profile.Email.String)

		msg, ok := emailsvc.LastSentMessage()
		require.True(t, ok)
		assert.Equal(t, "welcome", msg.TemplateName)

		// the token opens a session
		rec = e.do(http.MethodGet, "/v1/auth/session", resp.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_authApi_login(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	createInactiveUser(t, e, "Jobbar", "01733333333", "jobbar@test.bd")

	login := func(email, pwd string) []byte {
		return marshalObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}
	msgs := i18n.M(i18n.EN)

	tests := []httpTest{
		{name: "unknown email", body: login("who@test.bd", testPwd), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: msgs.InvalidCredentials})},
		{name: "wrong password", body: login("rahim@test.bd", "nope-nope"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: msgs.InvalidCredentials})},
		{name: "deactivated", body: login("jobbar@test.bd", testPwd), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: msgs.AccountDeactivated})},
		{name: "logged in (email case-insensitive)", body: login(" RAHIM@test.bd ", testPwd), wantCode: http.StatusOK},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/login"
	}
	e.run(t, tests)

	t.Run("localized error", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/auth/login?lang=bn", "", login("who@test.bd", testPwd))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, string(marshalObj(t, httpErr{Error: i18n.M(i18n.BN).InvalidCredentials})), rec.Body.String())

		req, rec := newRequest(http.MethodPost, "/v1/auth/login", login("who@test.bd", testPwd))
		req.Header.Set("Accept-Language", "bn-BD,bn;q=0.9,en;q=0.8")
		e.app.ServeHTTP(rec, req)
		assert.JSONEq(t, string(marshalObj(t, httpErr{Error: i18n.M(i18n.BN).InvalidCredentials})), rec.Body.String())
	})
}

func createInactiveUser(t *testing.T, e *env, name, mobile, email string) {
	t.Helper()
	usr, _ := e.createUser(t, name, mobile, email)
	usr.IsActive = false
	_, err := e.svc.UserRepo.UpdateUser(context.Background(), usr)
	require.NoError(t, err)
}

func Test_authApi_logout(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")

	e.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/auth/logout", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "logged out", method: http.MethodPost, path: "/v1/auth/logout", token: token, wantCode: http.StatusNoContent},
		{name: "token revoked", path: "/v1/auth/session", token: token, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken)},
		{name: "garbage token", path: "/v1/auth/session", token: "not.a.jwt", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errInvalidToken)},
	})

	// a new login still works
	assert.NotEmpty(t, e.getToken(t, "rahim@test.bd"))
}

func Test_authApi_session(t *testing.T) {
	e := setup(t)
	_, prof := e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")

	rec := e.do(http.MethodGet, "/v1/auth/session", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp echoapi.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, token, resp.Token)
	assert.Equal(t, prof.ID, resp.Profile.ID)
	assert.Equal(t, "01711111111", resp.Profile.Mobile)
}

func Test_authApi_refreshToken(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")

	rec := e.do(http.MethodPost, "/v1/auth/token-refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodPost, "/v1/auth/token-refresh", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, token, resp.Token)

	// the previous token is superseded
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/v1/auth/session", token).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/auth/session", resp.Token).Code)
}

func Test_authApi_passwordReset(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	msgs := i18n.M(i18n.EN)
	sent := marshalObj(t, echoapi.SuccessResponse{Success: msgs.PasswordResetSent})

	emailsvc.ResetSentMessages()
	e.run(t, []httpTest{
		{name: "invalid email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marshalObj(t, echoapi.PasswordResetRequest{Email: "nope"}), wantCode: http.StatusBadRequest},
		{name: "unknown email (same answer)", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marshalObj(t, echoapi.PasswordResetRequest{Email: "who@test.bd"}), wantData: sent},
	})
	assert.Empty(t, emailsvc.SentMessages)

	rec := e.do(http.MethodPost, "/v1/auth/password-reset", "", marshalObj(t, echoapi.PasswordResetRequest{Email: "rahim@test.bd"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(sent), rec.Body.String())

	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "password_reset", msg.TemplateName)
	data := msg.TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)

	confirm := func(uid, token, pwd, confirm string) []byte {
		return marshalObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: confirm})
	}
	newPwd := "br@nd-n3w-pwd"
	e.run(t, []httpTest{
		{name: "passwords mismatch", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body: confirm(uid, token, newPwd, "other"), wantCode: http.StatusBadRequest},
		{name: "bad token", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body: confirm(uid, "MFRGG-bad", newPwd, newPwd), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: msgs.InvalidResetLink})},
		{name: "reset", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body: confirm(uid, token, newPwd, newPwd),
			wantData: marshalObj(t, echoapi.SuccessResponse{Success: msgs.PasswordResetDone})},
		{name: "link is single use", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body: confirm(uid, token, "an0ther-pwd!", "an0ther-pwd!"), wantCode: http.StatusBadRequest},
	})

	rec = e.do(http.MethodPost, "/v1/auth/login", "", marshalObj(t, echoapi.LoginRequest{Email: "rahim@test.bd", Password: newPwd}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_profileApi(t *testing.T) {
	e := setup(t)
	_, prof := e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	e.createUser(t, "Karim", "01722222222", "karim@test.bd")
	token := e.getToken(t, "rahim@test.bd")
	msgs := i18n.M(i18n.EN)

	lookup := func(mobile string) string {
		return "/v1/profiles/lookup?" + url.Values{"mobile": {mobile}}.Encode()
	}

	e.run(t, []httpTest{
		{name: "lookup unknown", path: lookup("01799999999"), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: msgs.UserNotFound})},
		{name: "lookup blank", path: lookup(" "), wantCode: http.StatusNotFound},
		{name: "lookup found", path: lookup("017-1111 1111"), wantData: []byte(`{"email": "rahim@test.bd"}`)},
		{name: "me requires auth", path: "/v1/profiles/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "me", path: "/v1/profiles/me", token: token, wantData: marshalObj(t, prof)},
		{name: "mobile taken", method: http.MethodPut, path: "/v1/profiles/me", token: token,
			body: []byte(`{"mobile": "01722222222"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"mobile": msgs.AccountExists})},
	})

	rec := e.do(http.MethodPut, "/v1/profiles/me", token, []byte(`{"name": "  Rahim Mia "}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated user.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Rahim Mia", updated.Name)
	assert.Equal(t, prof.Mobile, updated.Mobile)
}

func Test_profileApi_lookupRateLimit(t *testing.T) {
	e := setup(t, func(conf *core.Config) { conf.Server.LookupRateLimit = 1 })
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/profiles/lookup?mobile=01711111111", "").Code)
	rec := e.do(http.MethodGet, "/v1/profiles/lookup?mobile=01711111111", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), i18n.M(i18n.EN).TooManyRequests))
}
