package main

import (
	"context"

	"github.com/shikkhaloy/shikkhaloy/core/user"
)

func (cli *commandLine) resetPassword(identifier, pwd string) error {
	if tag := user.CheckPassword(pwd); tag != "" {
		return user.ErrWeakPassword
	}
	return cli.usrSvc.SetPassword(context.Background(), identifier, pwd)
}

func (cli *commandLine) deactivate(identifier string) error {
	return cli.usrSvc.Deactivate(context.Background(), identifier)
}
