package user_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	"github.com/shikkhaloy/shikkhaloy/services/email"
	"github.com/shikkhaloy/shikkhaloy/tests"
)

func TestService_Register(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateUser(t, svcs.UserRepo, "Taken", "01700000000", "taken@test.bd", "pwd", true)

	tests := []struct {
		name      string
		reg       user.Registration
		wantErr   error
		wantField string
	}{
		{
			name:    "email taken",
			reg:     user.Registration{Name: "X", Mobile: "01811111111", Email: "TAKEN@test.bd", Password: "Secure#Pass1"},
			wantErr: user.ErrUserExists, wantField: "email",
		},
		{
			name:    "mobile taken",
			reg:     user.Registration{Name: "X", Mobile: "017-0000 0000", Email: "new@test.bd", Password: "Secure#Pass1"},
			wantErr: user.ErrMobileExists, wantField: "mobile",
		},
		{name: "valid", reg: user.Registration{Name: " Rahim ", Mobile: "01812345678", Email: "Rahim@Test.bd", Password: "Secure#Pass1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			usr, prof, err := svcs.UserSvc.Register(ctx, tt.reg)
			if tt.wantErr != nil {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr), "got %v", err)
				assert.Equal(t, tt.wantErr, vErr.Err)
				require.Len(t, vErr.Fields, 1)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				assert.Empty(t, emailsvc.SentMessages)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "rahim@test.bd", usr.Email)
			assert.True(t, usr.IsActive)
			assert.Equal(t, usr.ID, prof.ID)
			assert.Equal(t, "Rahim", prof.Name)
			assert.Equal(t, "rahim@test.bd", prof.Email.String)
			assert.NoError(t, usr.CheckPassword("Secure#Pass1"))

			msg, ok := emailsvc.LastSentMessage()
			require.True(t, ok)
			assert.Equal(t, "welcome", msg.TemplateName)
			assert.Contains(t, msg.TextContent, "Rahim")
		})
	}
}

// A failure after the principal is created must not leave it behind.
func TestService_Register_atomic(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	repo := &failingProfileRepo{Repository: svcs.UserRepo}
	svc := user.NewService(repo, svcs.DB, svcs.MailSvc, user.OptionsFromConfig(svcs.Conf))

	_, _, err := svc.Register(ctx, user.Registration{Name: "Karim", Mobile: "01912345678", Email: "karim@test.bd", Password: "Secure#Pass1"})
	require.Error(t, err)

	_, err = svcs.UserRepo.GetUser(ctx, user.GetFilter{Email: "karim@test.bd"})
	assert.Equal(t, user.ErrNotFound, err)
}

type failingProfileRepo struct {
	user.Repository
}

func (r *failingProfileRepo) CreateProfile(context.Context, user.Profile, ...core.DBExecutor) (user.Profile, error) {
	return user.Profile{}, errors.New("boom")
}

func TestService_Authenticate(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	active, _ := testutil.CreateUser(t, svcs.UserRepo, "Active", "01711111111", "active@test.bd", "Secure#Pass1", true)
	testutil.CreateUser(t, svcs.UserRepo, "Gone", "01722222222", "gone@test.bd", "Secure#Pass1", false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "nobody@test.bd", pwd: "Secure#Pass1", wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: "active@test.bd", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "deactivated", email: "gone@test.bd", pwd: "Secure#Pass1", wantErr: user.ErrAccountDeactivated},
		{name: "valid (case insensitive email)", email: " ACTIVE@test.bd", pwd: "Secure#Pass1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svcs.UserSvc.Authenticate(ctx, tt.email, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantErr == nil {
				assert.Equal(t, active.ID, usr.ID)
				assert.True(t, usr.LastLogin.Valid)
			}
		})
	}
}

func TestService_ResolveIdentifier(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateUser(t, svcs.UserRepo, "Rahim", "01712345678", "rahim@test.bd", "", true)

	tests := []struct {
		name       string
		identifier string
		want       string
		wantErr    error
	}{
		{name: "empty", identifier: "  ", wantErr: user.ErrNotFound},
		{name: "email passes through", identifier: "someone@test.bd", want: "someone@test.bd"},
		{name: "mobile", identifier: "01712345678", want: "rahim@test.bd"},
		{name: "mobile with dashes", identifier: "017-1234-5678", want: "rahim@test.bd"},
		{name: "unknown mobile", identifier: "01999999999", wantErr: user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svcs.UserSvc.ResolveIdentifier(ctx, tt.identifier)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	usr, _ := testutil.CreateUser(t, svcs.UserRepo, "Rahim", "01712345678", "rahim@test.bd", "", true)
	testutil.CreateUser(t, svcs.UserRepo, "Karim", "01800000000", "karim@test.bd", "", true)

	_, err := svcs.UserSvc.UpdateProfile(ctx, usr.ID, user.ProfileUpdate{Mobile: "01800000000"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, user.ErrMobileExists, vErr.Err)

	prof, err := svcs.UserSvc.UpdateProfile(ctx, usr.ID, user.ProfileUpdate{Name: "Rahim Uddin", Mobile: "01900000000"})
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", prof.Name)
	assert.Equal(t, "01900000000", prof.Mobile)

	_, err = svcs.UserSvc.UpdateProfile(ctx, "unknown", user.ProfileUpdate{Name: "X"})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_PasswordReset(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	usr, _ := testutil.CreateUser(t, svcs.UserRepo, "Rahim", "01712345678", "rahim@test.bd", "Old#Pass123", true)
	testutil.CreateUser(t, svcs.UserRepo, "Gone", "01722222222", "gone@test.bd", "Old#Pass123", false)

	assert.Equal(t, user.ErrNotFound, svcs.UserSvc.RequestPasswordReset(ctx, "nobody@test.bd"))
	assert.Equal(t, user.ErrAccountDeactivated, svcs.UserSvc.RequestPasswordReset(ctx, "gone@test.bd"))

	emailsvc.ResetSentMessages()
	require.NoError(t, svcs.UserSvc.RequestPasswordReset(ctx, "Rahim@test.bd"))
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "password_reset", msg.TemplateName)
	data := msg.TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)
	assert.Equal(t, user.EncodeUID(usr), uid)
	assert.True(t, strings.Contains(msg.TextContent, token))

	badLink := svcs.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: "bad-token", Password: "New#Pass456"})
	var vErr *core.ValidationError
	require.True(t, errors.As(badLink, &vErr))
	assert.Equal(t, user.ErrInvalidResetLink, vErr.Err)

	require.NoError(t, svcs.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "New#Pass456"}))
	_, err := svcs.UserSvc.Authenticate(ctx, "rahim@test.bd", "New#Pass456")
	assert.NoError(t, err)

	// the token is single use: the password hash changed
	reused := svcs.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "Other#Pass789"})
	assert.Error(t, reused)
}

func TestService_SetPasswordAndDeactivate(t *testing.T) {
	svcs := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateUser(t, svcs.UserRepo, "Rahim", "01712345678", "rahim@test.bd", "Old#Pass123", true)

	require.NoError(t, svcs.UserSvc.SetPassword(ctx, "01712345678", "New#Pass456"))
	_, err := svcs.UserSvc.Authenticate(ctx, "rahim@test.bd", "New#Pass456")
	require.NoError(t, err)

	require.NoError(t, svcs.UserSvc.Deactivate(ctx, "rahim@test.bd"))
	_, err = svcs.UserSvc.Authenticate(ctx, "rahim@test.bd", "New#Pass456")
	assert.Equal(t, user.ErrAccountDeactivated, err)

	assert.Equal(t, user.ErrNotFound, svcs.UserSvc.Deactivate(ctx, "nobody@test.bd"))
}

func TestCheckPassword(t *testing.T) {
	svcs := testutil.NewServices(t)
	_ = svcs // loads the common passwords

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1#", want: "pwdminlen"},
		{name: "whitespace", pwd: "Secure Pass1", want: "pwdnospace"},
		{name: "all numeric", pwd: "1234567890", want: "pwdnotallnum"},
		{name: "similar to email", pwd: "rahim@test.bd", attrs: []string{"Rahim", "rahim@test.bd"}, want: "pwdtoosim"},
		{name: "common", pwd: "password", want: "pwdnocommon"},
		{name: "valid", pwd: "Secure#Pass1", attrs: []string{"Rahim", "rahim@test.bd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, user.CheckPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestRegistration_Validate(t *testing.T) {
	svcs := testutil.NewServices(t)

	reg := user.Registration{Name: "Rahim", Mobile: "abc", Email: "not-an-email", Password: "short"}
	err := reg.Validate(svcs.Validate)
	require.Error(t, err)

	reg = user.Registration{Name: "Rahim", Mobile: "+880 1712-345678", Email: "Rahim@Test.bd", Password: "Secure#Pass1"}
	require.NoError(t, reg.Validate(svcs.Validate))
	assert.Equal(t, "+8801712345678", reg.Mobile)
	assert.Equal(t, "rahim@test.bd", reg.Email)
}
