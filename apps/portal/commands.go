package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/portal"
)

func (cli *commandLine) authenticate(ctx context.Context, mode portal.AuthMode, form portal.AuthForm) error {
	if err := cli.start(ctx); err != nil {
		return err
	}
	view := cli.app.AuthView()
	if view.Mode() != mode {
		view.ToggleMode()
	}
	view.SetForm(form)
	if err := view.Submit(ctx); err != nil {
		fmt.Fprintln(cli.out, view.Error())
		return err
	}
	fmt.Fprintf(cli.out, "%s, %s\n", cli.labels().WelcomeBack, cli.app.User().Name)
	return nil
}

func (cli *commandLine) login(ctx context.Context, identifier, pwd string) error {
	return cli.authenticate(ctx, portal.LoginMode, portal.AuthForm{Identifier: identifier, Password: pwd})
}

func (cli *commandLine) register(ctx context.Context, name, mobile, email, pwd string) error {
	return cli.authenticate(ctx, portal.RegisterMode, portal.AuthForm{Name: name, Mobile: mobile, Email: email, Password: pwd})
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.start(ctx); err != nil {
		return err
	}
	// the local session goes away whatever the server says
	if err := cli.app.Logout(ctx); err != nil {
		fmt.Fprintln(cli.out, err.Error())
	}
	fmt.Fprintln(cli.out, cli.labels().Logout)
	return nil
}

func (cli *commandLine) roster(ctx context.Context, search, class string) (*portal.Roster, error) {
	if err := cli.start(ctx); err != nil {
		return nil, err
	}
	if err := cli.requireUser(); err != nil {
		return nil, err
	}
	roster := cli.app.Roster()
	roster.Search(search)
	roster.FilterByClass(class)
	return roster, nil
}

func (cli *commandLine) listStudents(ctx context.Context, search, class string) error {
	roster, err := cli.roster(ctx, search, class)
	if err != nil {
		return err
	}
	list := roster.Filtered()
	if len(list) == 0 {
		fmt.Fprintln(cli.out, cli.msgs().NoStudentsFound)
		return nil
	}

	lang := cli.app.Language()
	t := cli.labels()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\t%s\t%s\t%s\t%s\t%s\n", t.RollNo, t.StudentName, t.Class, t.Section, t.Gender, t.Attendance)
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s%%\n",
			s.ID, s.Roll, s.DisplayName(lang.String()), s.Class, s.Section.String, s.Gender,
			strconv.FormatFloat(s.Attendance, 'f', -1, 64))
	}
	return w.Flush()
}

// studentFlags binds the form fields to a flag set.
type studentFlags struct {
	nameEN, nameBN, roll, class, section, gender, grade, contact *string
	attendance                                                    *float64
}

func newStudentFlags(fs *flag.FlagSet) *studentFlags {
	return &studentFlags{
		nameEN:     fs.String("name-en", "", "Name in English."),
		nameBN:     fs.String("name-bn", "", "Name in Bangla."),
		roll:       fs.String("roll", "", "Roll number."),
		class:      fs.String("class", "", "Class. Defaults to the first class of the institution."),
		section:    fs.String("section", "", "Section. Defaults to A."),
		gender:     fs.String("gender", "", "Male, Female or Other. Defaults to Male."),
		grade:      fs.String("grade", "", "Letter grade."),
		contact:    fs.String("contact", "", "Contact number."),
		attendance: fs.Float64("attendance", -1, "Attendance percentage. Defaults to 100."),
	}
}

// fill overwrites the form fields that were given.
func (sf *studentFlags) fill(form *student.Form) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&form.NameEN, *sf.nameEN)
	set(&form.NameBN, *sf.nameBN)
	set(&form.Roll, *sf.roll)
	set(&form.Class, *sf.class)
	set(&form.Section, *sf.section)
	set(&form.Grade, *sf.grade)
	set(&form.Contact, *sf.contact)
	if *sf.gender != "" {
		form.Gender = student.Gender(*sf.gender)
	}
	if *sf.attendance >= 0 {
		form.Attendance = *sf.attendance
	}
}

func (cli *commandLine) addStudent(ctx context.Context, sf *studentFlags) error {
	roster, err := cli.roster(ctx, "", "")
	if err != nil {
		return err
	}
	roster.OpenCreateForm()
	form, _ := roster.Form()
	sf.fill(&form)
	roster.SetForm(form)

	err = roster.Save(ctx)
	fmt.Fprintln(cli.out, roster.Notice().Text)
	return err
}

func (cli *commandLine) deleteStudent(ctx context.Context, id string) error {
	roster, err := cli.roster(ctx, "", "")
	if err != nil {
		return err
	}
	if err := roster.Delete(ctx, id, cli.confirm); err != nil {
		fmt.Fprintln(cli.out, roster.Notice().Text)
		return err
	}
	return nil
}

func (cli *commandLine) stats(ctx context.Context) error {
	if err := cli.start(ctx); err != nil {
		return err
	}
	if err := cli.requireUser(); err != nil {
		return err
	}
	d := cli.app.Dashboard()

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	for _, card := range d.Cards {
		fmt.Fprintf(w, "%s\t%s\n", card.Label, card.Value)
	}
	if len(d.ClassSeries) > 0 {
		fmt.Fprintf(w, "\n%s\t\n", cli.labels().Class)
		for _, p := range d.ClassSeries {
			fmt.Fprintf(w, "%s\t%d\n", p.Label, p.Value)
		}
	}
	return w.Flush()
}

func (cli *commandLine) export(ctx context.Context, search, class, dir string) error {
	roster, err := cli.roster(ctx, search, class)
	if err != nil {
		return err
	}
	err = roster.ExportCurrentView(portal.DirDownloader(dir))
	if notice := roster.Notice(); !notice.IsZero() {
		fmt.Fprintln(cli.out, notice.Text)
	}
	return err
}

func (cli *commandLine) insight(ctx context.Context, id, roll string) error {
	roster, err := cli.roster(ctx, "", "")
	if err != nil {
		return err
	}
	for _, s := range roster.Filtered() {
		if (id != "" && s.ID == id) || (id == "" && s.Roll == roll) {
			fmt.Fprintf(cli.out, "%s: %s\n", cli.labels().AIInsights, s.DisplayName(cli.app.Language().String()))
			fmt.Fprintln(cli.out, roster.RequestInsight(ctx, s))
			return nil
		}
	}
	fmt.Fprintln(cli.out, cli.msgs().NoStudentsFound)
	return errNoSuchRecord
}
