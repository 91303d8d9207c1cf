package portal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type AuthMode int

const (
	LoginMode AuthMode = iota
	RegisterMode
)

// AuthForm holds the fields of both modes; Identifier is an email or a mobile number.
type AuthForm struct {
	Identifier string
	Name       string
	Mobile     string
	Email      string
	Password   string
}

// languageSource is where views read the active language from.
type languageSource interface {
	Language() i18n.Language
}

// AuthView is the login/registration form. Every remote failure ends the submission: nothing is retried.
type AuthView struct {
	remote  SessionRemote
	lang    languageSource
	logger  core.Logger
	onLogin func(ctx context.Context, prof user.Profile)

	mu         sync.Mutex
	mode       AuthMode
	form       AuthForm
	err        string
	submitting bool
}

// NewAuthView calls onLogin once per successful submission with the signed in profile.
func NewAuthView(remote SessionRemote, lang languageSource, logger core.Logger, onLogin func(ctx context.Context, prof user.Profile)) *AuthView {
	return &AuthView{remote: remote, lang: lang, logger: logger, onLogin: onLogin}
}

func (v *AuthView) Mode() AuthMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// ToggleMode switches between login and registration, clearing the error.
func (v *AuthView) ToggleMode() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mode == LoginMode {
		v.mode = RegisterMode
	} else {
		v.mode = LoginMode
	}
	v.err = ""
}

func (v *AuthView) Form() AuthForm {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

func (v *AuthView) SetForm(form AuthForm) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form = form
}

// Error is the localized message of the last failed submission.
func (v *AuthView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *AuthView) Submitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitting
}

// Submit sends the form in the current mode. On failure the form is kept and the returned
// *Failure carries the localized message. ErrSubmitting means an earlier Submit is still running.
func (v *AuthView) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.submitting {
		v.mu.Unlock()
		return ErrSubmitting
	}
	v.submitting = true
	v.err = ""
	mode, form := v.mode, v.form
	v.mu.Unlock()

	var prof user.Profile
	var err error
	if mode == LoginMode {
		prof, err = v.login(ctx, form)
	} else {
		prof, err = v.register(ctx, form)
	}

	v.mu.Lock()
	v.submitting = false
	if err != nil {
		v.err = err.Error()
	}
	v.mu.Unlock()
	if err != nil {
		return err
	}

	if v.onLogin != nil {
		v.onLogin(ctx, prof)
	}
	return nil
}

func (v *AuthView) fail(err error) error {
	lang := v.lang.Language()
	switch {
	case errors.Is(err, ErrMissingFields):
		return &Failure{Text: i18n.M(lang).FillAllFields, Err: err}
	case errors.Is(err, client.ErrNotFound):
		return &Failure{Text: i18n.M(lang).UserNotFound, Err: err}
	}
	return &Failure{Text: remoteErrorText(err, lang), Err: err}
}

func (v *AuthView) login(ctx context.Context, form AuthForm) (user.Profile, error) {
	identifier := strings.TrimSpace(form.Identifier)
	if identifier == "" || form.Password == "" {
		return user.Profile{}, v.fail(ErrMissingFields)
	}

	email := identifier
	if !user.IsEmail(identifier) {
		var err error
		if email, err = v.remote.LookupEmailByMobile(ctx, identifier); err != nil {
			return user.Profile{}, v.fail(err)
		}
	}

	sess, err := v.remote.SignInWithPassword(ctx, email, form.Password)
	if err != nil {
		return user.Profile{}, v.fail(err)
	}
	prof, err := v.remote.GetProfile(ctx)
	if err != nil {
		v.logger.Warn(fmt.Sprintf("fetching profile after login: %v", err), err)
		prof = sess.Profile
	}
	return prof, nil
}

func (v *AuthView) register(ctx context.Context, form AuthForm) (user.Profile, error) {
	reg := user.Registration{Name: form.Name, Mobile: form.Mobile, Email: form.Email, Password: form.Password}
	reg.Clean()
	if reg.Name == "" || reg.Mobile == "" || reg.Email == "" || reg.Password == "" {
		return user.Profile{}, v.fail(ErrMissingFields)
	}

	sess, err := v.remote.SignUp(ctx, reg)
	if err != nil {
		return user.Profile{}, v.fail(err)
	}
	return sess.Profile, nil
}
