package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/shikkhaloy/shikkhaloy/apps/api/echo"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/insight"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	emailsvc "github.com/shikkhaloy/shikkhaloy/services/email"
	insightsvc "github.com/shikkhaloy/shikkhaloy/services/insight"
	logsvc "github.com/shikkhaloy/shikkhaloy/services/logger"
	"github.com/shikkhaloy/shikkhaloy/storage/database"
	sessionstore "github.com/shikkhaloy/shikkhaloy/storage/session"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type storageResult struct {
	dig.Out
	Backend     *database.Backend
	Tx          core.TxRunner
	UserRepo    user.Repository
	StudentRepo student.Repository
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) storageResult {
	backend, err := database.OpenBackend(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("database ready : engine %q", conf.Database.Engine))
	return storageResult{
		Backend:     backend,
		Tx:          backend.Tx,
		UserRepo:    backend.UserRepo,
		StudentRepo: backend.StudentRepo,
	}
}

// newSessionStore keeps revoked sessions in redis when configured, in memory otherwise.
func newSessionStore(conf *core.Config, logger core.Logger) user.SessionStore {
	if conf.Redis.Addr == "" {
		logger.Warn("redis not configured: revoked sessions are kept in memory")
		return sessionstore.NewMemoryStore()
	}
	return sessionstore.NewRedisStore(sessionstore.NewRedisClient(conf))
}

func newInsightService(conf *core.Config, logger core.Logger) insight.Service {
	return insightsvc.NewService(context.Background(), logger, conf)
}

func newUserService(repo user.Repository, tx core.TxRunner, mailSvc core.EmailService, conf *core.Config) user.Service {
	return user.NewService(repo, tx, mailSvc, user.OptionsFromConfig(conf))
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Uni        *ut.UniversalTranslator
	UserSvc    user.Service
	StudentSvc student.Service
	InsightSvc insight.Service
	Sessions   user.SessionStore
}

func newServer(p serverParams) echoapi.Server {
	return echoapi.NewServer(
		&echoapi.Options{Address: p.Conf.Server.Address},
		&echoapi.Deps{
			Conf:       p.Conf,
			Logger:     p.Logger,
			Validate:   p.Validate,
			Uni:        p.Uni,
			UserSvc:    p.UserSvc,
			StudentSvc: p.StudentSvc,
			InsightSvc: p.InsightSvc,
			Sessions:   p.Sessions,
		},
	)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newSessionStore))
	must(c.Provide(newInsightService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewUniversalTranslator))
	must(c.Provide(newUserService))
	must(c.Provide(student.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
