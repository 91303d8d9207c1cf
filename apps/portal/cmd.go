package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/portal"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp         = errors.New("help provided")
	errNotSignedIn  = errors.New("not signed in")
	errNoSuchRecord = errors.New("no such student")
)

type commandLine struct {
	app *portal.App
	in  *bufio.Reader // answers to confirmations
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage: portal [-api URL] [-lang en|bn] [-session FILE] COMMAND")
	fmt.Fprintln(cli.out, "  login -identifier EMAIL|MOBILE              - sign in, the password is prompted")
	fmt.Fprintln(cli.out, "  register -name NAME -mobile MOBILE -email EMAIL - create an account and sign in")
	fmt.Fprintln(cli.out, "  logout                                      - sign out")
	fmt.Fprintln(cli.out, "  students [-search TEXT] [-class CLASS]      - list students")
	fmt.Fprintln(cli.out, "  add -name-en NAME -name-bn NAME -roll ROLL [-class CLASS] [-section S] [-gender G] [-attendance N] [-grade G] [-contact C]")
	fmt.Fprintln(cli.out, "  delete -id ID                               - delete a student")
	fmt.Fprintln(cli.out, "  stats                                       - show the dashboard")
	fmt.Fprintln(cli.out, "  export [-search TEXT] [-class CLASS] [-dir DIR] - export students as CSV")
	fmt.Fprintln(cli.out, "  insight -id ID | -roll ROLL                 - ask AI for an analysis")
}

func (cli *commandLine) msgs() i18n.Messages      { return i18n.M(cli.app.Language()) }
func (cli *commandLine) labels() i18n.Translation { return i18n.T(cli.app.Language()) }

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprintf(cli.out, "%s:", cli.labels().Password)
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

// confirm asks a yes/no question on the input, defaulting to no.
func (cli *commandLine) confirm(prompt string) bool {
	fmt.Fprintf(cli.out, "%s [y/N] ", prompt)
	answer, _ := cli.in.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// start bootstraps the session; commands needing a user then check the state.
func (cli *commandLine) start(ctx context.Context) error {
	if err := cli.app.Start(ctx); err != nil {
		if errors.Is(err, portal.ErrBootTimeout) {
			fmt.Fprintln(cli.out, cli.msgs().ConnectionTimeout)
		}
		return err
	}
	return nil
}

func (cli *commandLine) requireUser() error {
	if cli.app.State() != portal.StateAuthenticated {
		fmt.Fprintln(cli.out, cli.msgs().Unauthorized)
		return errNotSignedIn
	}
	return nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginIdent := loginCmd.String("identifier", "", "The account's email or mobile. The password will be prompted next.")

	registerCmd := flag.NewFlagSet("register", flag.ContinueOnError)
	registerName := registerCmd.String("name", "", "Your full name.")
	registerMobile := registerCmd.String("mobile", "", "Your mobile number.")
	registerEmail := registerCmd.String("email", "", "Your email. The password will be prompted next.")

	studentsCmd := flag.NewFlagSet("students", flag.ContinueOnError)
	studentsSearch := studentsCmd.String("search", "", "Only list students whose name or roll contains this text.")
	studentsClass := studentsCmd.String("class", "", "Only list this class.")

	addCmd := flag.NewFlagSet("add", flag.ContinueOnError)
	addInput := newStudentFlags(addCmd)

	deleteCmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	deleteID := deleteCmd.String("id", "", "The student's ID.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportSearch := exportCmd.String("search", "", "Only export students whose name or roll contains this text.")
	exportClass := exportCmd.String("class", "", "Only export this class.")
	exportDir := exportCmd.String("dir", ".", "Directory to save the export in.")

	insightCmd := flag.NewFlagSet("insight", flag.ContinueOnError)
	insightID := insightCmd.String("id", "", "The student's ID.")
	insightRoll := insightCmd.String("roll", "", "The student's roll number.")

	for _, fs := range []*flag.FlagSet{loginCmd, registerCmd, studentsCmd, addCmd, deleteCmd, exportCmd, insightCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[0] {
	case "login":
		if err := loginCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *loginIdent == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(loginCmd)
		if err != nil {
			return err
		}
		return cli.login(ctx, *loginIdent, pwd)

	case "register":
		if err := registerCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *registerName == "" || *registerMobile == "" || *registerEmail == "" {
			registerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(registerCmd)
		if err != nil {
			return err
		}
		return cli.register(ctx, *registerName, *registerMobile, *registerEmail, pwd)

	case "logout":
		return cli.logout(ctx)

	case "students":
		if err := studentsCmd.Parse(args[1:]); err != nil {
			return err
		}
		return cli.listStudents(ctx, *studentsSearch, *studentsClass)

	case "add":
		if err := addCmd.Parse(args[1:]); err != nil {
			return err
		}
		return cli.addStudent(ctx, addInput)

	case "delete":
		if err := deleteCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *deleteID == "" {
			deleteCmd.Usage()
			return errHelp
		}
		return cli.deleteStudent(ctx, *deleteID)

	case "stats":
		return cli.stats(ctx)

	case "export":
		if err := exportCmd.Parse(args[1:]); err != nil {
			return err
		}
		return cli.export(ctx, *exportSearch, *exportClass, *exportDir)

	case "insight":
		if err := insightCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *insightID == "" && *insightRoll == "" {
			insightCmd.Usage()
			return errHelp
		}
		return cli.insight(ctx, *insightID, *insightRoll)

	default:
		cli.printUsage()
		return errHelp
	}
}
