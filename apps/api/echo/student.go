package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/insight"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

type studentApi struct {
	svc         student.Service
	insightSvc  insight.Service
	validate    *validator.Validate
	metrics     *metrics
	defaultLang i18n.Language
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc student.Service,
	insightSvc insight.Service,
	validate *validator.Validate,
	m *metrics,
	defaultLang i18n.Language,
) {
	api := studentApi{
		svc:         svc,
		insightSvc:  insightSvc,
		validate:    validate,
		metrics:     m,
		defaultLang: defaultLang,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.list)
	sg.POST("", api.create)
	sg.GET("/export", api.export)
	sg.GET("/:id", api.get)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.delete)
	sg.POST("/:id/insight", api.insight)
}

// Handlers

func (api *studentApi) list(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ord Ordering
	ord.Bind(ctx)

	list, err := api.svc.Query(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *studentApi) bindInput(ctx echo.Context) (student.Input, error) {
	var in student.Input
	if err := ctx.Bind(&in); err != nil {
		return in, errors.Wrap(err, "binding to student.Input")
	}
	if err := in.CheckRequired(); err != nil {
		return in, err
	}
	if err := in.Validate(api.validate); err != nil {
		return in, err
	}
	return in, nil
}

func (api *studentApi) create(ctx echo.Context) error {
	in, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), in)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) get(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	in, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), in)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// export sends the matching students as a CSV attachment. The document is buffered so that
// a failure still renders as a JSON error.
func (api *studentApi) export(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	var buf bytes.Buffer
	count, err := api.svc.Export(ctx.Request().Context(), &buf, &filter)
	if err != nil {
		return errors.Wrap(err, "exporting students")
	}
	api.metrics.studentsExports.Inc()

	filename := student.ExportFilename(student.NowFunc())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Response().Header().Set("X-Exported-Count", fmt.Sprint(count))
	return ctx.Blob(http.StatusOK, student.ExportContentType, buf.Bytes())
}

func (api *studentApi) insight(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	s, err := api.svc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}

	lang := requestLanguage(ctx, api.defaultLang)
	text := api.insightSvc.StudentInsight(reqCtx, s, lang)
	api.metrics.insights.WithLabelValues(lang.String()).Inc()
	return ctx.JSON(http.StatusOK, InsightResponse{ID: s.ID, Text: text})
}

type InsightResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
