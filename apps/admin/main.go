package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	emailsvc "github.com/shikkhaloy/shikkhaloy/services/email"
	logsvc "github.com/shikkhaloy/shikkhaloy/services/logger"
	"github.com/shikkhaloy/shikkhaloy/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	uni := core.NewUniversalTranslator()
	validate := validator.New()
	core.InitValidators(validate, uni)
	user.InitValidators(validate, uni)
	user.LoadCommonPasswords(logger)
	core.ParseEmailTemplates(logger, conf)

	// set up DB
	backend, err := database.OpenBackend(context.Background(), conf)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	mailSvc := emailsvc.NewService(logger, conf)

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       backend.DB,
		usrSvc:   user.NewService(backend.UserRepo, backend.Tx, mailSvc, user.OptionsFromConfig(conf)),
		stdSvc:   student.NewService(backend.StudentRepo),
		mailSvc:  mailSvc,
		validate: validate,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	emailsvc.Wait()
	if cErr := backend.Close(); cErr != nil {
		logger.Error(cErr.Error(), cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("error: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
