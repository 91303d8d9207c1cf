package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikkhaloy/shikkhaloy/apps/api/echo"
	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/tests"
)

func Test_studentApi_list(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")

	path := func(search, class, ordering string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if class != "" {
			v.Add("class", class)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		return "/v1/students?" + v.Encode()
	}

	now := time.Now()
	repo := e.svc.StudentRepo
	abdul := testutil.CreateStudent(t, repo, "Abdul Karim", "আব্দুল করিম", "101", "Dakhil 6", student.Male, 95, now.Add(-3*time.Hour))
	fatema := testutil.CreateStudent(t, repo, "Fatema Begum", "ফাতেমা বেগম", "102", "Dakhil 6", student.Female, 88, now.Add(-2*time.Hour))
	hasan := testutil.CreateStudent(t, repo, "Hasan Ali", "হাসান আলী", "201", "Alim 1st Year", student.Male, 70, now.Add(-1*time.Hour))

	tests := []httpTest{
		{name: "auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "newest first", path: "/v1/students", token: token, wantData: marshalList(t, hasan, fatema, abdul)},
		{name: "search english (case-insensitive)", path: path("karim", "", ""), token: token, wantData: marshalList(t, abdul)},
		{name: "search bangla", path: path("ফাতেমা", "", ""), token: token, wantData: marshalList(t, fatema)},
		{name: "search roll", path: path("20", "", ""), token: token, wantData: marshalList(t, hasan)},
		{name: "search unknown", path: path("zzz", "", ""), token: token, wantData: marshalList(t)},
		{name: "class", path: path("", "Dakhil 6", ""), token: token, wantData: marshalList(t, fatema, abdul)},
		{name: "class All", path: path("", student.AllClasses, ""), token: token, wantData: marshalList(t, hasan, fatema, abdul)},
		{name: "search & class", path: path("a", "Alim 1st Year", ""), token: token, wantData: marshalList(t, hasan)},
		{name: "order by roll", path: path("", "", "roll"), token: token, wantData: marshalList(t, abdul, fatema, hasan)},
		{name: "order by -attendance", path: path("", "", "-attendance"), token: token, wantData: marshalList(t, abdul, fatema, hasan)},
		{name: "unknown ordering ignored", path: path("", "", "password"), token: token, wantData: marshalList(t, hasan, fatema, abdul)},
	}
	e.run(t, tests)
}

func Test_studentApi_crud(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")
	msgs := i18n.M(i18n.EN)

	e.run(t, []httpTest{
		{name: "create requires auth", method: http.MethodPost, path: "/v1/students", body: []byte(`{}`), wantCode: http.StatusUnauthorized},
		{name: "name & roll required", method: http.MethodPost, path: "/v1/students", token: token,
			body: []byte(`{"name_en": "Abdul", "name_bn": "  "}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: msgs.NameRollRequired})},
		{name: "name & roll required (bangla)", method: http.MethodPost, path: "/v1/students?lang=bn", token: token,
			body: []byte(`{"roll": "1"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: i18n.M(i18n.BN).NameRollRequired})},
		{name: "invalid gender", method: http.MethodPost, path: "/v1/students", token: token,
			body: []byte(`{"name_en": "Abdul", "name_bn": "আব্দুল", "roll": "1", "gender": "Robot"}`), wantCode: http.StatusBadRequest},
		{name: "grade too long", method: http.MethodPost, path: "/v1/students", token: token,
			body:     []byte(`{"name_en": "Abdul", "name_bn": "আব্দুল", "roll": "1", "grade": "Excellent"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"grade": "grade must be a maximum of 8 characters in length"})},
		{name: "section too long", method: http.MethodPost, path: "/v1/students", token: token,
			body:     []byte(`{"name_en": "Abdul", "name_bn": "আব্দুল", "roll": "1", "section": "` + strings.Repeat("x", 40) + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"section": "section must be a maximum of 32 characters in length"})},
		{name: "get unknown", path: "/v1/students/nope", token: token, wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: msgs.NotFound})},
		{name: "get unknown (bangla)", path: "/v1/students/nope?lang=bn", token: token, wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: i18n.M(i18n.BN).NotFound})},
		{name: "delete unknown", method: http.MethodDelete, path: "/v1/students/nope", token: token, wantCode: http.StatusNotFound},
	})

	// create
	body := []byte(`{
		"name_en": " Abdul Karim ", "name_bn": "আব্দুল করিম", "roll": "101", "class": "Dakhil 6",
		"section": "", "gender": "Male", "father_name_en": "Rafiq", "contact": " ", "attendance": 92.5
	}`)
	rec := e.do(http.MethodPost, "/v1/students", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Abdul Karim", created.NameEN)
	assert.Equal(t, "Rafiq", created.FatherNameEN.String)
	assert.False(t, created.Section.Valid, "blank optionals are stored as null")
	assert.False(t, created.Contact.Valid)
	assert.Equal(t, 92.5, created.Attendance)

	// legacy single-name payload
	rec = e.do(http.MethodPost, "/v1/students", token, []byte(`{"name": "Hasan", "roll": "7"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var legacy student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &legacy))
	assert.Equal(t, "Hasan", legacy.NameEN)
	assert.Equal(t, "Hasan", legacy.NameBN)
	assert.Equal(t, student.Male, legacy.Gender)

	// get
	rec = e.do(http.MethodGet, "/v1/students/"+created.ID, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(marshalObj(t, created)), rec.Body.String())

	// update
	upd := []byte(`{"name_en": "Abdul Karim", "name_bn": "আব্দুল করিম", "roll": "101", "class": "Dakhil 10", "gender": "Male", "grade": "A+", "attendance": 97}`)
	rec = e.do(http.MethodPut, "/v1/students/"+created.ID, token, upd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Dakhil 10", updated.Class)
	assert.Equal(t, "A+", updated.Grade.String)
	assert.False(t, updated.FatherNameEN.Valid, "update overwrites the whole record")
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	rec = e.do(http.MethodPut, "/v1/students/nope", token, upd)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// delete
	rec = e.do(http.MethodDelete, "/v1/students/"+created.ID, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(http.MethodGet, "/v1/students/"+created.ID, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_studentApi_export(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")

	e.run(t, []httpTest{
		{name: "auth required", path: "/v1/students/export", wantCode: http.StatusUnauthorized},
		{name: "nothing to export", path: "/v1/students/export", token: token, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: i18n.M(i18n.EN).NothingToExport})},
	})

	testutil.CreateStudent(t, e.svc.StudentRepo, `Abdul "Babu" Karim`, "আব্দুল করিম", "101", "Dakhil 6", student.Male, 95)
	testutil.CreateStudent(t, e.svc.StudentRepo, "Fatema Begum", "ফাতেমা বেগম", "102", "Alim 1st Year", student.Female, 88)

	rec := e.do(http.MethodGet, "/v1/students/export", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, student.ExportContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"students_")
	assert.Equal(t, "2", rec.Header().Get("X-Exported-Count"))

	body := rec.Body.Bytes()
	assert.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}), "starts with a UTF-8 BOM")
	lines := strings.Split(strings.TrimSuffix(string(body[3:]), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], `"ID","Name (English)","Name (Bangla)","Roll"`))
	assert.Contains(t, string(body), `"Abdul ""Babu"" Karim","আব্দুল করিম","101"`)

	// filtered
	rec = e.do(http.MethodGet, "/v1/students/export?class=Alim+1st+Year", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Exported-Count"))
	assert.NotContains(t, rec.Body.String(), "Abdul")

	// counted
	rec = e.do(http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), "shikkhaloy_student_exports_total 2")
}

func Test_studentApi_insight(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")
	s := testutil.CreateStudent(t, e.svc.StudentRepo, "Abdul Karim", "আব্দুল করিম", "101", "Dakhil 6", student.Male, 95)

	e.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/students/" + s.ID + "/insight", wantCode: http.StatusUnauthorized},
		{name: "unknown student", method: http.MethodPost, path: "/v1/students/nope/insight", token: token, wantCode: http.StatusNotFound},
		{name: "fallback (en)", method: http.MethodPost, path: "/v1/students/" + s.ID + "/insight?lang=en", token: token,
			wantData: marshalObj(t, echoapi.InsightResponse{ID: s.ID, Text: i18n.M(i18n.EN).InsightFallback})},
		{name: "fallback (bn)", method: http.MethodPost, path: "/v1/students/" + s.ID + "/insight?lang=bn", token: token,
			wantData: marshalObj(t, echoapi.InsightResponse{ID: s.ID, Text: i18n.M(i18n.BN).InsightFallback})},
	})
}

// lostDatabase answers every listing as if postgres had gone away.
type lostDatabase struct {
	student.Repository
}

func (lostDatabase) QueryStudents(context.Context, *student.QueryFilter, []core.DBOrdering, ...core.DBExecutor) ([]student.Student, error) {
	return nil, core.NewShutdownError("querying students", sql.ErrConnDone)
}

func Test_studentApi_lostDatabase(t *testing.T) {
	e := setupWithDeps(t, func(deps *echoapi.Deps) {
		deps.StudentSvc = student.NewService(lostDatabase{})
	})
	e.createUser(t, "Rahim", "01711111111", "rahim@test.bd")
	token := e.getToken(t, "rahim@test.bd")

	rec := e.do(http.MethodGet, "/v1/students", token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, string(marshalObj(t, httpErr{Error: i18n.M(i18n.EN).ServerError})), rec.Body.String())

	select {
	case sig := <-e.app.ShutdownSignal():
		assert.Equal(t, syscall.SIGTERM, sig)
	case <-time.After(time.Second):
		t.Fatal("the server did not ask to shut down")
	}
}
