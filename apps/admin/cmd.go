package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sqlx.DB // nil for the memory engine
	usrSvc   user.Service
	stdSvc   student.Service
	mailSvc  core.EmailService
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -mobile MOBILE -email EMAIL - create an account")
	fmt.Fprintln(cli.out, "  resetpassword -identifier EMAIL|MOBILE        - reset an account's password")
	fmt.Fprintln(cli.out, "  deactivate -identifier EMAIL|MOBILE           - deactivate an account")
	fmt.Fprintln(cli.out, "  export [-class CLASS] [-search TEXT] [-out FILE] [-mailto EMAIL] - export students as CSV")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                        - run a database migration command")
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The account holder's name.")
	addUserMobile := addUserCmd.String("mobile", "", "The account's mobile number.")
	addUserEmail := addUserCmd.String("email", "", "The account's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordIdent := resetPasswordCmd.String("identifier", "", "The account's email or mobile. The password will be prompted next.")

	deactivateCmd := flag.NewFlagSet("deactivate", flag.ExitOnError)
	deactivateIdent := deactivateCmd.String("identifier", "", "The account's email or mobile.")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportClass := exportCmd.String("class", "", "Only export this class.")
	exportSearch := exportCmd.String("search", "", "Only export students matching this text.")
	exportOut := exportCmd.String("out", "", "Output file. Defaults to a timestamped file in the working directory.")
	exportMailTo := exportCmd.String("mailto", "", "Also send the export to this email address.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserMobile == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserMobile, *addUserEmail, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordIdent == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordIdent, pwd)

	case "deactivate":
		if err := deactivateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deactivateIdent == "" {
			deactivateCmd.Usage()
			return errHelp
		}
		return cli.deactivate(*deactivateIdent)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.export(&student.QueryFilter{Class: *exportClass, Search: *exportSearch}, *exportOut, *exportMailTo)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
