package portal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

// Host is what the roster needs from the root application.
type Host interface {
	Students() []student.Student
	Language() i18n.Language
	RefreshStudents(ctx context.Context) error
}

// Confirmer asks the user to confirm `prompt`.
type Confirmer func(prompt string) bool

// Downloader hands a generated document over to the user.
type Downloader interface {
	Download(filename, contentType string, data []byte) error
}

// DirDownloader saves the documents in a directory.
type DirDownloader string

func (dir DirDownloader) Download(filename, _ string, data []byte) error {
	path := filepath.Join(string(dir), filepath.Base(filename))
	return errors.Wrap(os.WriteFile(path, data, 0o644), "saving "+path)
}

// Roster is the student management view. The list it works on always comes from the Host:
// mutations are followed by a full refresh, never patched in.
type Roster struct {
	remote StudentRemote
	host   Host
	inst   student.InstitutionType
	logger core.Logger

	mu       sync.Mutex
	search   string
	class    string
	formOpen bool
	editing  *student.Student
	form     student.Form
	notice   Notice

	insights       map[string]string
	insightPending map[string]uint64 // id -> sequence number of the request in flight
	insightSeq     uint64
}

func NewRoster(remote StudentRemote, host Host, inst student.InstitutionType, logger core.Logger) *Roster {
	return &Roster{
		remote:         remote,
		host:           host,
		inst:           inst,
		logger:         logger,
		class:          student.AllClasses,
		insights:       make(map[string]string),
		insightPending: make(map[string]uint64),
	}
}

func (r *Roster) Search(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.search = text
}

// FilterByClass narrows the view to one class; AllClasses (or "") lifts the filter.
func (r *Roster) FilterByClass(class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if class == "" {
		class = student.AllClasses
	}
	r.class = class
}

func (r *Roster) Filters() (search, class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.search, r.class
}

// Filtered returns the students matching both the search text and the class filter.
func (r *Roster) Filtered() []student.Student {
	search, class := r.Filters()
	return student.Search(r.host.Students(), search, class)
}

// ClassOptions lists the class filter choices, AllClasses first.
func (r *Roster) ClassOptions() []string {
	return append([]string{student.AllClasses}, student.Classes(r.inst)...)
}

// OpenCreateForm opens a blank form.
func (r *Roster) OpenCreateForm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.form = student.DefaultForm(r.inst)
	r.editing = nil
	r.formOpen = true
}

// OpenEditForm opens the form loaded with `s`; saving it updates `s`.
func (r *Roster) OpenEditForm(s student.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.form = student.FormFrom(s)
	r.editing = &s
	r.formOpen = true
}

func (r *Roster) CloseForm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formOpen = false
	r.editing = nil
}

// Form returns the form state and whether the form is open.
func (r *Roster) Form() (student.Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.form, r.formOpen
}

func (r *Roster) SetForm(form student.Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.form = form
}

// Editing returns the record being edited, nil for a new one.
func (r *Roster) Editing() *student.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.editing == nil {
		return nil
	}
	s := *r.editing
	return &s
}

func (r *Roster) Notice() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notice
}

func (r *Roster) setNotice(kind NoticeKind, text string) {
	r.mu.Lock()
	r.notice = Notice{Kind: kind, Text: text}
	r.mu.Unlock()
}

// Save submits the form: an update of the edited record, an insert otherwise.
// Without both names and a roll nothing is sent. On failure the form stays open as it was.
func (r *Roster) Save(ctx context.Context) error {
	msgs := i18n.M(r.host.Language())

	r.mu.Lock()
	in := r.form.Payload()
	editing := r.editing
	r.mu.Unlock()

	if in.NameEN == "" || in.NameBN == "" || in.Roll == "" {
		r.setNotice(NoticeError, msgs.NameRollRequired)
		return &Failure{Text: msgs.NameRollRequired, Err: student.ErrNameRollRequired}
	}

	var err error
	if editing != nil {
		_, err = r.remote.UpdateStudent(ctx, editing.ID, in)
	} else {
		_, err = r.remote.InsertStudent(ctx, in)
	}
	if err != nil {
		text := msgs.SaveFailedWith(remoteErrorText(err, r.host.Language()))
		r.setNotice(NoticeError, text)
		return &Failure{Text: text, Err: err}
	}

	if err := r.host.RefreshStudents(ctx); err != nil {
		r.logger.Error(fmt.Sprintf("refreshing students after save: %v", err), err)
	}
	r.mu.Lock()
	r.formOpen = false
	r.editing = nil
	r.notice = Notice{Kind: NoticeSuccess, Text: msgs.SavedSuccessfully}
	r.mu.Unlock()
	return nil
}

// Delete removes the student `id` once `confirm` agrees. A declined confirmation is not an error.
func (r *Roster) Delete(ctx context.Context, id string, confirm Confirmer) error {
	msgs := i18n.M(r.host.Language())
	if confirm != nil && !confirm(msgs.ConfirmDelete) {
		return nil
	}

	if err := r.remote.DeleteStudent(ctx, id); err != nil {
		r.logger.Error(fmt.Sprintf("deleting student %s: %v", id, err), err)
		r.setNotice(NoticeError, msgs.DeleteFailed)
		return &Failure{Text: msgs.DeleteFailed, Err: err}
	}
	if err := r.host.RefreshStudents(ctx); err != nil {
		r.logger.Error(fmt.Sprintf("refreshing students after delete: %v", err), err)
	}
	r.DismissInsight(id)
	return nil
}

// ExportCurrentView hands the filtered list to `dl` as a CSV document.
func (r *Roster) ExportCurrentView(dl Downloader) error {
	msgs := i18n.M(r.host.Language())
	list := r.Filtered()
	if len(list) == 0 {
		r.setNotice(NoticeError, msgs.NothingToExport)
		return &Failure{Text: msgs.NothingToExport, Err: student.ErrNothingToExport}
	}

	var buf bytes.Buffer
	if err := student.WriteCSV(&buf, list); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	if err := dl.Download(student.ExportFilename(student.NowFunc()), student.ExportContentType, buf.Bytes()); err != nil {
		r.setNotice(NoticeError, msgs.ExportFailed)
		return &Failure{Text: msgs.ExportFailed, Err: errors.Wrap(err, "downloading export")}
	}
	r.setNotice(NoticeSuccess, msgs.ExportedCount(len(list)))
	return nil
}

// RequestInsight asks for the AI summary of `s` in the active language. Requests for different
// students run independently; for one student the latest request wins.
func (r *Roster) RequestInsight(ctx context.Context, s student.Student) string {
	lang := r.host.Language()

	r.mu.Lock()
	r.insightSeq++
	seq := r.insightSeq
	r.insightPending[s.ID] = seq
	r.mu.Unlock()

	text, err := r.remote.StudentInsight(ctx, s.ID, lang)
	if err != nil {
		r.logger.Error(fmt.Sprintf("student insight %s: %v", s.ID, err), err)
		text = i18n.M(lang).InsightFallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insightPending[s.ID] == seq {
		delete(r.insightPending, s.ID)
		r.insights[s.ID] = text
	}
	return text
}

func (r *Roster) Insight(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, ok := r.insights[id]
	return text, ok
}

func (r *Roster) InsightLoading(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.insightPending[id]
	return ok
}

// DismissInsight hides the insight of `id`; a request still in flight is dropped too.
func (r *Roster) DismissInsight(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.insights, id)
	delete(r.insightPending, id)
}
