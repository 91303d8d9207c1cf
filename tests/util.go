package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	"github.com/shikkhaloy/shikkhaloy/services/email"
	"github.com/shikkhaloy/shikkhaloy/services/logger"
	"github.com/shikkhaloy/shikkhaloy/storage/database/inmem"
)

// Services bundles an in-memory backend ready for tests.
type Services struct {
	Conf        *core.Config
	Logger      core.Logger
	DB          *inmemdb.DB
	UserRepo    user.Repository
	StudentRepo student.Repository
	MailSvc     core.EmailService
	UserSvc     user.Service
	StudentSvc  student.Service
	Validate    *validator.Validate
	Uni         *ut.UniversalTranslator
}

func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func NewServices(t *testing.T) *Services {
	t.Helper()
	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	core.ParseEmailTemplates(logger, conf)
	user.LoadCommonPasswords(logger)
	emailsvc.ResetSentMessages()

	uni := core.NewUniversalTranslator()
	validate := validator.New()
	core.InitValidators(validate, uni)
	user.InitValidators(validate, uni)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(logger, conf)

	return &Services{
		Conf:        conf,
		Logger:      logger,
		DB:          db,
		UserRepo:    usrRepo,
		StudentRepo: stdRepo,
		MailSvc:     mailSvc,
		UserSvc:     user.NewService(usrRepo, db, mailSvc, user.OptionsFromConfig(conf)),
		StudentSvc:  student.NewService(stdRepo),
		Validate:    validate,
		Uni:         uni,
	}
}

// CreateUser stores an account with its profile, bypassing the registration rules.
func CreateUser(t *testing.T, repo user.Repository, name, mobile, email, pwd string, isActive bool) (user.User, user.Profile) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	usr := user.User{Email: email, IsActive: isActive, CreatedAt: now, UpdatedAt: now}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	prof, err := repo.CreateProfile(ctx, user.Profile{
		ID:        usr.ID,
		Name:      name,
		Mobile:    mobile,
		Email:     null.StringFrom(email),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr, prof
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	nameEN, nameBN, roll, class string,
	gender student.Gender,
	attendance float64,
	createdAt ...time.Time,
) student.Student {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateStudent(context.Background(), student.Student{
		NameEN:     nameEN,
		NameBN:     nameBN,
		Roll:       roll,
		Class:      class,
		Gender:     gender,
		Attendance: attendance,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}
