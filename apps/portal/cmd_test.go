package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/shikkhaloy/shikkhaloy/apps/api/echo"
	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/insight"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/portal"
	sessionstore "github.com/shikkhaloy/shikkhaloy/storage/session"
	testutil "github.com/shikkhaloy/shikkhaloy/tests"
)

const testPwd = "Kh@t@-b0i-42"

type env struct {
	svc     *testutil.Services
	srv     *httptest.Server
	storage client.SessionStorage
}

func setup(t *testing.T) *env {
	t.Helper()
	svc := testutil.NewServices(t)
	app := echoapi.NewServer(
		&echoapi.Options{DisableReqLogs: true},
		&echoapi.Deps{
			Conf:       svc.Conf,
			Logger:     svc.Logger,
			Validate:   svc.Validate,
			Uni:        svc.Uni,
			UserSvc:    svc.UserSvc,
			StudentSvc: svc.StudentSvc,
			InsightSvc: insight.NewService(nil, svc.Logger),
			Sessions:   sessionstore.NewMemoryStore(),
		},
	)
	srv := httptest.NewServer(app)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})

	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(testPwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
	return &env{svc: svc, srv: srv, storage: client.NewMemoryStorage()}
}

// cli builds a fresh command line sharing the session storage, like a new process would.
func (e *env) cli(t *testing.T, lang i18n.Language, input string) (*commandLine, *bytes.Buffer) {
	t.Helper()
	api, err := client.New(client.Options{BaseURL: e.srv.URL, Storage: e.storage, Timeout: 5 * time.Second})
	require.NoError(t, err)
	app := portal.NewApp(api, portal.Options{Language: lang, InstitutionType: student.Madrasa, Logger: e.svc.Logger})
	t.Cleanup(app.Close)

	out := new(bytes.Buffer)
	return &commandLine{app: app, in: bufio.NewReader(strings.NewReader(input)), out: out}, out
}

func (e *env) run(t *testing.T, lang i18n.Language, input string, args ...string) (string, error) {
	t.Helper()
	cli, out := e.cli(t, lang, input)
	err := cli.run(context.Background(), args)
	return out.String(), err
}

func TestUsage(t *testing.T) {
	e := setup(t)
	out, err := e.run(t, i18n.EN, "")
	assert.Equal(t, errHelp, err)
	assert.Contains(t, out, "Usage:")

	_, err = e.run(t, i18n.EN, "", "frobnicate")
	assert.Equal(t, errHelp, err)

	_, err = e.run(t, i18n.EN, "", "login")
	assert.Equal(t, errHelp, err)
}

func TestSignedOut(t *testing.T) {
	e := setup(t)
	out, err := e.run(t, i18n.BN, "", "students")
	assert.Equal(t, errNotSignedIn, err)
	assert.Contains(t, out, i18n.M(i18n.BN).Unauthorized)
}

func TestRegisterLoginLogout(t *testing.T) {
	e := setup(t)

	out, err := e.run(t, i18n.EN, "", "register", "-name", "Karim", "-mobile", "01711111111", "-email", "karim@test.bd")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Welcome Back, Karim")

	// the session survives the process
	out, err = e.run(t, i18n.EN, "", "students")
	require.NoError(t, err)
	assert.Contains(t, out, i18n.M(i18n.EN).NoStudentsFound)

	out, err = e.run(t, i18n.EN, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logout")
	_, err = e.run(t, i18n.EN, "", "students")
	assert.Equal(t, errNotSignedIn, err)

	// mobile numbers are resolved to the account email
	out, err = e.run(t, i18n.EN, "", "login", "-identifier", "01711111111")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Welcome Back, Karim")

	out, err = e.run(t, i18n.BN, "", "login", "-identifier", "01999999999")
	assert.Error(t, err)
	assert.Contains(t, out, i18n.M(i18n.BN).UserNotFound)
}

func TestStudents(t *testing.T) {
	e := setup(t)
	testutil.CreateUser(t, e.svc.UserRepo, "Karim", "01711111111", "karim@test.bd", testPwd, true)
	_, err := e.run(t, i18n.EN, "", "login", "-identifier", "karim@test.bd")
	require.NoError(t, err)

	out, err := e.run(t, i18n.EN, "", "add", "-name-en", "Abdullah", "-roll", "7")
	assert.Error(t, err)
	assert.Contains(t, out, i18n.M(i18n.EN).NameRollRequired)

	out, err = e.run(t, i18n.EN, "", "add", "-name-en", "Abdullah", "-name-bn", "আব্দুল্লাহ", "-roll", "7", "-class", "Dakhil 6", "-attendance", "95")
	require.NoError(t, err, out)
	assert.Contains(t, out, i18n.M(i18n.EN).SavedSuccessfully)
	out, err = e.run(t, i18n.EN, "", "add", "-name-en", "Fatema", "-name-bn", "ফাতেমা", "-roll", "8", "-gender", "Female", "-attendance", "85")
	require.NoError(t, err, out)

	out, err = e.run(t, i18n.BN, "", "students", "-class", "Dakhil 6")
	require.NoError(t, err)
	assert.Contains(t, out, "আব্দুল্লাহ")
	assert.NotContains(t, out, "ফাতেমা")

	out, err = e.run(t, i18n.EN, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Students")
	assert.Contains(t, out, "90%")
	assert.Contains(t, out, "Ibtidai 1")

	out, err = e.run(t, i18n.EN, "", "insight", "-roll", "8")
	require.NoError(t, err)
	assert.Contains(t, out, i18n.M(i18n.EN).InsightFallback)
	_, err = e.run(t, i18n.EN, "", "insight", "-roll", "99")
	assert.Equal(t, errNoSuchRecord, err)

	dir := t.TempDir()
	out, err = e.run(t, i18n.EN, "", "export", "-search", "fat", "-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, i18n.M(i18n.EN).ExportedCount(1))
	files, _ := filepath.Glob(filepath.Join(dir, "*.csv"))
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Fatema"`)

	out, err = e.run(t, i18n.EN, "", "export", "-search", "nobody", "-dir", dir)
	assert.Error(t, err)
	assert.Contains(t, out, i18n.M(i18n.EN).NothingToExport)

	list, err := e.svc.StudentSvc.Query(context.Background(), &student.QueryFilter{Search: "Fatema"}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	// declined, then confirmed
	out, err = e.run(t, i18n.EN, "n\n", "delete", "-id", id)
	require.NoError(t, err)
	assert.Contains(t, out, i18n.M(i18n.EN).ConfirmDelete)
	_, err = e.svc.StudentSvc.Get(context.Background(), id)
	require.NoError(t, err)

	_, err = e.run(t, i18n.EN, "y\n", "delete", "-id", id)
	require.NoError(t, err)
	_, err = e.svc.StudentSvc.Get(context.Background(), id)
	assert.Equal(t, student.ErrNotFound, err)
}
