package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

const DefaultBootTimeout = 6 * time.Second

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Language        i18n.Language
	InstitutionType student.InstitutionType
	BootTimeout     time.Duration // defaults to DefaultBootTimeout
	Logger          core.Logger // required
}

// App is the root of the portal: it owns the session, the language, the active tab
// and the student list every view reads from.
type App struct {
	remote  Remote
	inst    student.InstitutionType
	timeout time.Duration
	logger  core.Logger

	mu          sync.Mutex
	state       State
	timedOut    bool
	boot        int // bumped by every bootstrap; stale results are dropped
	lang        i18n.Language
	tab         Tab
	profile     *user.Profile
	students    []student.Student
	loading     bool
	notice      Notice
	unsubscribe func()
}

func NewApp(remote Remote, opts Options) *App {
	if opts.BootTimeout <= 0 {
		opts.BootTimeout = DefaultBootTimeout
	}
	lang := i18n.ParseLanguage(opts.Language.String(), i18n.Default)
	remote.SetLanguage(lang)
	return &App{
		remote:   remote,
		inst:     student.ParseInstitutionType(string(opts.InstitutionType)),
		timeout:  opts.BootTimeout,
		logger:   opts.Logger,
		state:    StateLoading,
		lang:     lang,
		tab:      TabDashboard,
		students: []student.Student{},
	}
}

// Start subscribes to the auth-state changes and bootstraps the session. When the bootstrap
// outlasts the boot timeout the app leaves the loading state with TimedOut set and
// ErrBootTimeout is returned; the bootstrap itself keeps running in the background.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.unsubscribe == nil {
		a.unsubscribe = a.remote.OnAuthStateChange(a.onAuthStateChange)
	}
	a.mu.Unlock()
	return a.bootstrap(ctx)
}

// Retry runs the bootstrap again, typically after a timeout.
func (a *App) Retry(ctx context.Context) error {
	return a.bootstrap(ctx)
}

// Close stops listening to the auth-state changes.
func (a *App) Close() {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (a *App) bootstrap(ctx context.Context) error {
	a.mu.Lock()
	a.boot++
	gen := a.boot
	a.state = StateLoading
	a.timedOut = false
	a.notice = Notice{}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.resolveSession(ctx, gen)
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.boot == gen && a.state == StateLoading {
			a.state = StateUnauthenticated
			a.timedOut = true
			a.notice = Notice{Kind: NoticeError, Text: i18n.M(a.lang).ConnectionTimeout}
			a.logger.Warn(fmt.Sprintf("session bootstrap still pending after %s", a.timeout))
		}
		return ErrBootTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolveSession runs session, then profile, then student list; `gen` identifies the bootstrap.
// A failed profile fetch falls back to the profile carried by the session.
func (a *App) resolveSession(ctx context.Context, gen int) {
	sess, err := a.remote.GetSession(ctx)
	if err != nil {
		a.logger.Error(fmt.Sprintf("fetching session: %v", err), err)
		a.settle(gen, nil, nil, Notice{Kind: NoticeError, Text: remoteErrorText(err, a.Language())})
		return
	}
	if sess == nil {
		a.settle(gen, nil, nil, Notice{})
		return
	}

	var notice Notice
	prof, err := a.remote.GetProfile(ctx)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("fetching profile: %v", err), err)
		prof = sess.Profile
		notice = Notice{Kind: NoticeError, Text: remoteErrorText(err, a.Language())}
	}

	list, err := a.remote.ListStudents(ctx, client.ListOptions{})
	if err != nil {
		a.logger.Error(fmt.Sprintf("fetching students: %v", err), err, prof)
		list = []student.Student{}
	}
	a.settle(gen, &prof, list, notice)
}

// settle ends the bootstrap `gen`. A late result still applies unless a newer bootstrap started
// or the session changed meanwhile.
func (a *App) settle(gen int, prof *user.Profile, list []student.Student, notice Notice) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.boot != gen || (a.state != StateLoading && !a.timedOut) {
		return
	}
	a.timedOut = false
	a.notice = notice
	if prof == nil {
		a.state = StateUnauthenticated
		a.profile = nil
		a.students = []student.Student{}
		return
	}
	a.state = StateAuthenticated
	a.profile = prof
	a.students = list
}

func (a *App) onAuthStateChange(event client.AuthEvent, sess *client.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch event {
	case client.SignedOut:
		a.signedOut()
	case client.SignedIn, client.TokenRefreshed:
		if sess == nil {
			return
		}
		prof := sess.Profile
		a.profile = &prof
		a.state = StateAuthenticated
		a.timedOut = false
	}
}

func (a *App) signedOut() {
	a.boot++ // a pending bootstrap must not sign the user back in
	a.state = StateUnauthenticated
	a.timedOut = false
	a.profile = nil
	a.students = []student.Student{}
	a.tab = TabDashboard
}

// login is the Auth view callback: the user is known, the roster is loaded.
func (a *App) login(ctx context.Context, prof user.Profile) {
	a.mu.Lock()
	a.boot++
	a.profile = &prof
	a.state = StateAuthenticated
	a.timedOut = false
	a.notice = Notice{}
	a.mu.Unlock()

	if err := a.RefreshStudents(ctx); err != nil {
		a.logger.Error(fmt.Sprintf("fetching students: %v", err), err, prof)
	}
}

// Logout signs out remotely then clears the local state whatever the remote outcome.
func (a *App) Logout(ctx context.Context) error {
	err := a.remote.SignOut(ctx)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("remote sign out: %v", err), err)
	}
	a.mu.Lock()
	a.signedOut()
	a.mu.Unlock()
	return err
}

// RefreshStudents replaces the student list with the remote one.
func (a *App) RefreshStudents(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	list, err := a.remote.ListStudents(ctx, client.ListOptions{})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if err != nil {
		a.notice = Notice{Kind: NoticeError, Text: remoteErrorText(err, a.lang)}
		return &Failure{Text: a.notice.Text, Err: err}
	}
	if a.state == StateAuthenticated {
		a.students = list
	}
	return nil
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// TimedOut tells whether the last bootstrap was abandoned by the safety timer.
func (a *App) TimedOut() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timedOut
}

func (a *App) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading || a.state == StateLoading
}

// User returns the signed in profile, or nil.
func (a *App) User() *user.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.profile == nil {
		return nil
	}
	prof := *a.profile
	return &prof
}

// Students returns a copy of the current list.
func (a *App) Students() []student.Student {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := make([]student.Student, len(a.students))
	copy(list, a.students)
	return list
}

func (a *App) Language() i18n.Language {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lang
}

func (a *App) SetLanguage(lang i18n.Language) {
	a.mu.Lock()
	a.lang = i18n.ParseLanguage(lang.String(), a.lang)
	lang = a.lang
	a.mu.Unlock()
	a.remote.SetLanguage(lang)
}

func (a *App) Tab() Tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tab
}

func (a *App) SetTab(tab Tab) {
	if !tab.IsValid() {
		return
	}
	a.mu.Lock()
	a.tab = tab
	a.mu.Unlock()
}

func (a *App) Notice() Notice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notice
}

func (a *App) InstitutionType() student.InstitutionType { return a.inst }

// AuthView returns the login/registration view; a successful submission signs the app in.
func (a *App) AuthView() *AuthView {
	return NewAuthView(a.remote, a, a.logger, a.login)
}

// Roster returns the student management view over the app's student list.
func (a *App) Roster() *Roster {
	return NewRoster(a.remote, a, a.inst, a.logger)
}

func (a *App) Dashboard() Dashboard {
	return NewDashboard(a.Students(), a.Language())
}

// Layout returns the navigation shell wired to the app.
func (a *App) Layout() *Layout {
	return NewLayout(LayoutProps{
		ActiveTab:        a.Tab(),
		Language:         a.Language(),
		User:             a.User(),
		OnTabChange:      a.SetTab,
		OnLanguageChange: a.SetLanguage,
		OnLogout:         func(ctx context.Context) { _ = a.Logout(ctx) },
	})
}
