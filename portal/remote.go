// Package portal holds the state of the administration portal views: session bootstrap,
// authentication, the student roster, the dashboard and the navigation shell.
// Views are safe for concurrent use; remote calls never run under a view's lock.
package portal

import (
	"context"
	"errors"
	"net"

	pkgerrors "github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

var (
	// errors
	ErrMissingFields = errors.New("required fields missing")
	ErrBootTimeout   = errors.New("session bootstrap timed out")
	ErrSubmitting    = errors.New("a submission is already in flight")
)

type (
	// SessionRemote is the authentication side of the backend.
	SessionRemote interface {
		SetLanguage(lang i18n.Language)
		GetSession(ctx context.Context) (*client.Session, error)
		SignUp(ctx context.Context, reg user.Registration) (*client.Session, error)
		SignInWithPassword(ctx context.Context, email, pwd string) (*client.Session, error)
		SignOut(ctx context.Context) error
		OnAuthStateChange(fn client.AuthListener) (unsubscribe func())
		LookupEmailByMobile(ctx context.Context, mobile string) (string, error)
		GetProfile(ctx context.Context) (user.Profile, error)
	}

	// StudentRemote is the roster side of the backend.
	StudentRemote interface {
		ListStudents(ctx context.Context, opts client.ListOptions) ([]student.Student, error)
		InsertStudent(ctx context.Context, in student.Input) (student.Student, error)
		UpdateStudent(ctx context.Context, id string, in student.Input) (student.Student, error)
		DeleteStudent(ctx context.Context, id string) error
		StudentInsight(ctx context.Context, id string, lang i18n.Language) (string, error)
	}

	Remote interface {
		SessionRemote
		StudentRemote
	}
)

var _ Remote = (*client.Client)(nil) // interface compliance check

// Failure is a user action that did not go through: Text is what the user is shown.
type Failure struct {
	Text string
	Err  error
}

func (f *Failure) Error() string { return f.Text }
func (f *Failure) Unwrap() error { return f.Err }

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is the transient message of a view.
type Notice struct {
	Kind NoticeKind
	Text string
}

func (n Notice) IsZero() bool { return n.Kind == NoticeNone }

// remoteErrorText turns a remote failure into display text. The API localizes its own messages
// in the language the client asks for.
func remoteErrorText(err error, lang i18n.Language) string {
	msgs := i18n.M(lang)
	var apiErr *client.APIError
	var netErr net.Error
	switch {
	case pkgerrors.As(err, &apiErr):
		if apiErr.Message != "" || len(apiErr.Fields) > 0 {
			return apiErr.Error()
		}
		return msgs.ServerError
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return msgs.ConnectionTimeout
	default:
		return msgs.ServerError
	}
}
