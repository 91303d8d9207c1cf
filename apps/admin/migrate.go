package main

import (
	"context"
	"errors"

	"github.com/pressly/goose/v3"

	appfs "github.com/shikkhaloy/shikkhaloy/fs"
)

var (
	gooseRunFunc = goose.RunContext // mockable

	errNoSQLDatabase = errors.New("migrations need a SQL database engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(context.Background(), args[0], cli.db.DB, "migrations", arguments...)
}
