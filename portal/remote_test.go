package portal

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	testutil "github.com/shikkhaloy/shikkhaloy/tests"
)

const testPwd = "Kh@t@-b0i-42"

// fakeRemote is an in-memory backend. Set the *Err fields to make calls fail.
type fakeRemote struct {
	mu        sync.Mutex
	lang      i18n.Language
	session   *client.Session
	profiles  map[string]user.Profile // by email
	passwords map[string]string
	students  []student.Student
	nextID    int
	listeners map[int]client.AuthListener
	nextSub   int

	sessionDelay time.Duration
	sessionErr   error
	profileErr   error
	listErr      error
	saveErr      error
	deleteErr    error
	insightErr   error
	signOutErr   error
	insightText  func(id string, lang i18n.Language) string

	calls map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		profiles:  make(map[string]user.Profile),
		passwords: make(map[string]string),
		listeners: make(map[int]client.AuthListener),
		calls:     make(map[string]int),
	}
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) track(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeRemote) addUser(name, mobile, email string) user.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	prof := user.Profile{ID: "u-" + email, Name: name, Mobile: mobile, Email: null.StringFrom(email)}
	f.profiles[email] = prof
	f.passwords[email] = testPwd
	return prof
}

func (f *fakeRemote) addStudent(nameEN, roll, class string, gender student.Gender, attendance float64) student.Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s := student.Student{ID: strconv.Itoa(f.nextID), NameEN: nameEN, NameBN: nameEN, Roll: roll, Class: class, Gender: gender, Attendance: attendance}
	f.students = append(f.students, s)
	return s
}

func (f *fakeRemote) signIn(prof user.Profile) {
	f.mu.Lock()
	f.session = &client.Session{Token: "token-" + prof.ID, Profile: prof}
	f.mu.Unlock()
}

func (f *fakeRemote) emit(event client.AuthEvent, sess *client.Session) {
	f.mu.Lock()
	listeners := make([]client.AuthListener, 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(event, sess)
	}
}

func (f *fakeRemote) SetLanguage(lang i18n.Language) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lang = lang
}

func (f *fakeRemote) GetSession(ctx context.Context) (*client.Session, error) {
	f.track("GetSession")
	if f.sessionDelay > 0 {
		select {
		case <-time.After(f.sessionDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if f.session == nil {
		return nil, nil
	}
	sess := *f.session
	return &sess, nil
}

func (f *fakeRemote) SignUp(_ context.Context, reg user.Registration) (*client.Session, error) {
	f.track("SignUp")
	f.mu.Lock()
	if _, ok := f.profiles[reg.Email]; ok {
		f.mu.Unlock()
		return nil, &client.APIError{StatusCode: 400, Fields: map[string]string{"email": user.ErrUserExists.Error()}}
	}
	f.mu.Unlock()
	prof := f.addUser(reg.Name, reg.Mobile, reg.Email)
	f.signIn(prof)
	sess, _ := f.GetSession(context.Background())
	f.emit(client.SignedIn, sess)
	return sess, nil
}

func (f *fakeRemote) SignInWithPassword(_ context.Context, email, pwd string) (*client.Session, error) {
	f.track("SignInWithPassword")
	f.mu.Lock()
	prof, ok := f.profiles[email]
	valid := ok && f.passwords[email] == pwd
	f.mu.Unlock()
	if !valid {
		return nil, &client.APIError{StatusCode: 400, Message: i18n.M(i18n.EN).InvalidCredentials}
	}
	f.signIn(prof)
	sess, _ := f.GetSession(context.Background())
	f.emit(client.SignedIn, sess)
	return sess, nil
}

func (f *fakeRemote) SignOut(context.Context) error {
	f.track("SignOut")
	f.mu.Lock()
	f.session = nil
	err := f.signOutErr
	f.mu.Unlock()
	f.emit(client.SignedOut, nil)
	return err
}

func (f *fakeRemote) OnAuthStateChange(fn client.AuthListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeRemote) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeRemote) LookupEmailByMobile(_ context.Context, mobile string) (string, error) {
	f.track("LookupEmailByMobile")
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, prof := range f.profiles {
		if prof.Mobile == user.CleanMobile(mobile) {
			return email, nil
		}
	}
	return "", &client.APIError{StatusCode: 404, Message: "User not found"}
}

func (f *fakeRemote) GetProfile(context.Context) (user.Profile, error) {
	f.track("GetProfile")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return user.Profile{}, f.profileErr
	}
	if f.session == nil {
		return user.Profile{}, &client.APIError{StatusCode: 401}
	}
	return f.session.Profile, nil
}

func (f *fakeRemote) ListStudents(context.Context, client.ListOptions) ([]student.Student, error) {
	f.track("ListStudents")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	list := make([]student.Student, len(f.students))
	copy(list, f.students)
	return list, nil
}

func (f *fakeRemote) InsertStudent(_ context.Context, in student.Input) (student.Student, error) {
	f.track("InsertStudent")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return student.Student{}, f.saveErr
	}
	f.nextID++
	s := student.Student{ID: strconv.Itoa(f.nextID), NameEN: in.NameEN, NameBN: in.NameBN, Roll: in.Roll, Class: in.Class, Gender: in.Gender, Section: in.Section, Grade: in.Grade, Attendance: in.Attendance}
	f.students = append(f.students, s)
	return s, nil
}

func (f *fakeRemote) UpdateStudent(_ context.Context, id string, in student.Input) (student.Student, error) {
	f.track("UpdateStudent")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return student.Student{}, f.saveErr
	}
	for i, s := range f.students {
		if s.ID == id {
			s.NameEN, s.NameBN, s.Roll, s.Class, s.Attendance = in.NameEN, in.NameBN, in.Roll, in.Class, in.Attendance
			f.students[i] = s
			return s, nil
		}
	}
	return student.Student{}, &client.APIError{StatusCode: 404, Message: "Not found"}
}

func (f *fakeRemote) DeleteStudent(_ context.Context, id string) error {
	f.track("DeleteStudent")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, s := range f.students {
		if s.ID == id {
			f.students = append(f.students[:i], f.students[i+1:]...)
			return nil
		}
	}
	return &client.APIError{StatusCode: 404, Message: "Not found"}
}

func (f *fakeRemote) StudentInsight(_ context.Context, id string, lang i18n.Language) (string, error) {
	f.track("StudentInsight")
	f.mu.Lock()
	err, text := f.insightErr, f.insightText
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	if text != nil {
		return text(id, lang), nil
	}
	return "insight " + id + " " + lang.String(), nil
}

func newLogger() core.Logger {
	return testutil.NewLogger(core.NewTestConfig())
}

func newTestApp(t *testing.T, remote *fakeRemote, lang i18n.Language) *App {
	t.Helper()
	app := NewApp(remote, Options{Language: lang, InstitutionType: student.Madrasa, BootTimeout: time.Second, Logger: newLogger()})
	t.Cleanup(app.Close)
	return app
}
