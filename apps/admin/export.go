package main

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"os"

	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

// export writes the matching students to `out` and optionally mails the file.
func (cli *commandLine) export(filter *student.QueryFilter, out, mailTo string) error {
	var buf bytes.Buffer
	count, err := cli.stdSvc.Export(context.Background(), &buf, filter)
	if err != nil {
		return err
	}

	filename := student.ExportFilename(student.NowFunc())
	if out == "" {
		out = filename
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "writing export")
	}
	fmt.Fprintf(cli.out, "exported %d students to %s\n", count, out)

	if mailTo == "" {
		return nil
	}
	to, err := mail.ParseAddress(mailTo)
	if err != nil {
		return errors.Wrap(err, "parsing -mailto")
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{*to},
		Subject: "Student export",
		BodyStr: fmt.Sprintf("%d students exported on %s.", count, student.NowFunc().Format("2006-01-02 15:04")),
	}
	if err := msg.Attach(&buf, filename, student.ExportContentType); err != nil {
		return err
	}
	cli.mailSvc.SendMessages(msg)
	return nil
}
