// Command portal is the terminal front of the administration portal.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/shikkhaloy/shikkhaloy/client"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/portal"
	logsvc "github.com/shikkhaloy/shikkhaloy/services/logger"
)

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "shikkhaloy", "session.json")
}

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "PORTAL : ", log.LstdFlags|log.Lshortfile), conf)

	apiURL := flag.String("api", "http://"+conf.Server.Host+conf.Server.Address, "Base URL of the API.")
	lang := flag.String("lang", conf.DefaultLanguage, "Language: en or bn.")
	sessionPath := flag.String("session", defaultSessionPath(), "File keeping the session between runs.")
	flag.Parse()

	api, err := client.New(client.Options{
		BaseURL: *apiURL,
		Storage: client.NewFileStorage(*sessionPath),
	})
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	app := portal.NewApp(api, portal.Options{
		Language:        i18n.ParseLanguage(*lang, i18n.Default),
		InstitutionType: student.ParseInstitutionType(conf.InstitutionType),
		Logger:          logger,
	})
	defer app.Close()

	cli := commandLine{app: app, in: bufio.NewReader(os.Stdin), out: os.Stdout}
	if err := cli.run(context.Background(), flag.Args()); err != nil {
		app.Close()
		if err != errHelp && err != errNotSignedIn {
			logger.Debug("error: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
