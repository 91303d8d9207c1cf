package main

import (
	"context"
	"fmt"

	"github.com/shikkhaloy/shikkhaloy/core/user"
)

// addUser registers an active account, applying the same rules as the signup endpoint.
func (cli *commandLine) addUser(name, mobile, email, pwd string) error {
	reg := user.Registration{Name: name, Mobile: mobile, Email: email, Password: pwd}
	if err := reg.Validate(cli.validate); err != nil {
		return err
	}
	usr, prof, err := cli.usrSvc.Register(context.Background(), reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s <%s> (%s)\n", prof.Name, usr.Email, usr.ID)
	return nil
}
