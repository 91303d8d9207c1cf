package client

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

// ListOptions narrows ListStudents. Ordering is `field` or `-field`, newest first by default.
type ListOptions struct {
	Search   string
	Class    string
	Ordering string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Class != "" && o.Class != student.AllClasses {
		q.Set("class", o.Class)
	}
	if o.Ordering != "" {
		q.Set("ordering", o.Ordering)
	}
	return q
}

func (c *Client) ListStudents(ctx context.Context, opts ListOptions) ([]student.Student, error) {
	var list []student.Student
	if err := c.do(ctx, http.MethodGet, "/v1/students", opts.values(), nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []student.Student{}
	}
	return list, nil
}

func (c *Client) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var s student.Student
	err := c.do(ctx, http.MethodGet, "/v1/students/"+url.PathEscape(id), nil, nil, &s)
	return s, err
}

func (c *Client) InsertStudent(ctx context.Context, in student.Input) (student.Student, error) {
	var s student.Student
	err := c.do(ctx, http.MethodPost, "/v1/students", nil, in, &s)
	return s, err
}

func (c *Client) UpdateStudent(ctx context.Context, id string, in student.Input) (student.Student, error) {
	var s student.Student
	err := c.do(ctx, http.MethodPut, "/v1/students/"+url.PathEscape(id), nil, in, &s)
	return s, err
}

func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/students/"+url.PathEscape(id), nil, nil, nil)
}

// StudentInsight asks the server for the AI summary of one student. The server answers with a
// localized fallback text when the model is unavailable.
func (c *Client) StudentInsight(ctx context.Context, id string, lang i18n.Language) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	q := url.Values{"lang": {lang.String()}}
	if err := c.do(ctx, http.MethodPost, "/v1/students/"+url.PathEscape(id)+"/insight", q, nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *Client) Dashboard(ctx context.Context) (student.Stats, error) {
	var stats student.Stats
	err := c.do(ctx, http.MethodGet, "/v1/dashboard", nil, nil, &stats)
	return stats, err
}

type Classes struct {
	InstitutionType student.InstitutionType `json:"institution_type"`
	Classes         []string                `json:"classes"`
}

func (c *Client) Classes(ctx context.Context) (Classes, error) {
	var out Classes
	err := c.do(ctx, http.MethodGet, "/v1/classes", nil, nil, &out)
	return out, err
}

// ExportStudents downloads the CSV of the students matching opts.
// It returns the document, its suggested filename and the number of rows.
func (c *Client) ExportStudents(ctx context.Context, opts ListOptions) (data []byte, filename string, count int, err error) {
	resp, data, err := c.send(ctx, http.MethodGet, "/v1/students/export", opts.values(), nil)
	if err != nil {
		return nil, "", 0, err
	}
	count, _ = strconv.Atoi(resp.Header.Get("X-Exported-Count"))
	filename = student.ExportFilename(student.NowFunc())
	if _, params, perr := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); perr == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return data, filename, count, nil
}
