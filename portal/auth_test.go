package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type fixedLang i18n.Language

func (l fixedLang) Language() i18n.Language { return i18n.Language(l) }

type loginRecorder struct {
	profiles []user.Profile
}

func (r *loginRecorder) onLogin(_ context.Context, prof user.Profile) {
	r.profiles = append(r.profiles, prof)
}

func newTestAuthView(remote *fakeRemote, lang i18n.Language) (*AuthView, *loginRecorder) {
	rec := &loginRecorder{}
	return NewAuthView(remote, fixedLang(lang), newLogger(), rec.onLogin), rec
}

func TestAuthView_Login(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		lang      i18n.Language
		form      AuthForm
		wantErr   error
		wantText  string
		wantCalls map[string]int
	}{
		{
			name: "missing identifier", lang: i18n.EN, form: AuthForm{Password: testPwd},
			wantErr: ErrMissingFields, wantText: i18n.M(i18n.EN).FillAllFields,
			wantCalls: map[string]int{"LookupEmailByMobile": 0, "SignInWithPassword": 0},
		},
		{
			name: "missing password", lang: i18n.BN, form: AuthForm{Identifier: "karim@test.bd"},
			wantErr: ErrMissingFields, wantText: i18n.M(i18n.BN).FillAllFields,
			wantCalls: map[string]int{"SignInWithPassword": 0},
		},
		{
			name: "unknown mobile", lang: i18n.EN, form: AuthForm{Identifier: "01799999999", Password: testPwd},
			wantErr: client.ErrNotFound, wantText: i18n.M(i18n.EN).UserNotFound,
			wantCalls: map[string]int{"LookupEmailByMobile": 1, "SignInWithPassword": 0},
		},
		{
			name: "wrong password", lang: i18n.EN, form: AuthForm{Identifier: "karim@test.bd", Password: "nope"},
			wantText:  i18n.M(i18n.EN).InvalidCredentials,
			wantCalls: map[string]int{"LookupEmailByMobile": 0, "SignInWithPassword": 1},
		},
		{
			name: "email", lang: i18n.EN, form: AuthForm{Identifier: " karim@test.bd ", Password: testPwd},
			wantCalls: map[string]int{"LookupEmailByMobile": 0, "SignInWithPassword": 1, "GetProfile": 1},
		},
		{
			name: "mobile", lang: i18n.EN, form: AuthForm{Identifier: "01711-111111", Password: testPwd},
			wantCalls: map[string]int{"LookupEmailByMobile": 1, "SignInWithPassword": 1, "GetProfile": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			prof := remote.addUser("Karim", "01711111111", "karim@test.bd")
			view, rec := newTestAuthView(remote, tt.lang)
			view.SetForm(tt.form)

			err := view.Submit(ctx)
			for name, n := range tt.wantCalls {
				assert.Equalf(t, n, remote.count(name), "calls to %s", name)
			}
			if tt.wantText == "" {
				require.NoError(t, err)
				assert.Empty(t, view.Error())
				assert.Equal(t, []user.Profile{prof}, rec.profiles)
				return
			}

			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, tt.wantText, failure.Text)
			assert.Equal(t, tt.wantText, view.Error())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
			assert.Empty(t, rec.profiles)
			assert.Equal(t, tt.form, view.Form(), "the form is kept")
			assert.False(t, view.Submitting())
		})
	}
}

func TestAuthView_Register(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.addUser("Karim", "01711111111", "karim@test.bd")
	view, rec := newTestAuthView(remote, i18n.EN)

	assert.Equal(t, LoginMode, view.Mode())
	view.ToggleMode()
	assert.Equal(t, RegisterMode, view.Mode())

	// every field is required
	view.SetForm(AuthForm{Name: "Rahim", Mobile: "01722222222", Password: testPwd})
	err := view.Submit(ctx)
	assert.True(t, errors.Is(err, ErrMissingFields))
	assert.Zero(t, remote.count("SignUp"))

	// taken email
	view.SetForm(AuthForm{Name: "Rahim", Mobile: "01722222222", Email: "karim@test.bd", Password: testPwd})
	err = view.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, "email: "+user.ErrUserExists.Error(), view.Error())
	assert.Empty(t, rec.profiles)

	view.SetForm(AuthForm{Name: " Rahim ", Mobile: "01722222222", Email: "Rahim@Test.bd", Password: testPwd})
	require.NoError(t, view.Submit(ctx))
	require.Len(t, rec.profiles, 1, "onLogin fires exactly once")
	prof := rec.profiles[0]
	assert.NotEmpty(t, prof.ID)
	assert.Equal(t, "Rahim", prof.Name)
	assert.Equal(t, "01722222222", prof.Mobile)
	assert.Equal(t, "rahim@test.bd", prof.Email.String)

	view.ToggleMode()
	assert.Equal(t, LoginMode, view.Mode())
	assert.Empty(t, view.Error())
}

func TestAuthView_SubmitInFlight(t *testing.T) {
	remote := newFakeRemote()
	remote.addUser("Karim", "01711111111", "karim@test.bd")
	view, rec := newTestAuthView(remote, i18n.EN)
	view.SetForm(AuthForm{Identifier: "karim@test.bd", Password: testPwd})

	view.mu.Lock()
	view.submitting = true
	view.mu.Unlock()

	assert.Equal(t, ErrSubmitting, view.Submit(context.Background()))
	assert.Zero(t, remote.count("SignInWithPassword"))
	assert.Empty(t, rec.profiles)
	assert.True(t, view.Submitting(), "the running submission keeps the flag")
}

func TestAuthView_SignsAppIn(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.addUser("Karim", "01711111111", "karim@test.bd")
	remote.addStudent("Abdullah", "1", "Dakhil 6", "Male", 90)
	app := newTestApp(t, remote, i18n.EN)
	require.NoError(t, app.Start(ctx))
	require.Equal(t, StateUnauthenticated, app.State())

	view := app.AuthView()
	view.SetForm(AuthForm{Identifier: "01711111111", Password: testPwd})
	require.NoError(t, view.Submit(ctx))

	assert.Equal(t, StateAuthenticated, app.State())
	assert.Equal(t, "Karim", app.User().Name)
	assert.Len(t, app.Students(), 1)
}
