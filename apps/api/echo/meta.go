package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

type metaApi struct {
	studentSvc student.Service
	inst       student.InstitutionType
}

func registerMetaAPI(g *echo.Group, jwt echo.MiddlewareFunc, studentSvc student.Service, inst student.InstitutionType) {
	api := metaApi{studentSvc: studentSvc, inst: inst}

	g.GET("/dashboard", api.dashboard, jwt)
	g.GET("/classes", api.classes, jwt)
	g.GET("/translations/:lang", api.translations)
}

func (api *metaApi) dashboard(ctx echo.Context) error {
	stats, err := api.studentSvc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

type ClassesResponse struct {
	InstitutionType student.InstitutionType `json:"institution_type"`
	Classes         []string                `json:"classes"`
}

func (api *metaApi) classes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ClassesResponse{InstitutionType: api.inst, Classes: student.Classes(api.inst)})
}

type TranslationsResponse struct {
	Language    i18n.Language    `json:"language"`
	Translation i18n.Translation `json:"translation"`
	Messages    i18n.Messages    `json:"messages"`
}

// translations serves the UI strings; an unknown language gets the default one.
func (api *metaApi) translations(ctx echo.Context) error {
	lang := i18n.ParseLanguage(ctx.Param("lang"), i18n.Default)
	return ctx.JSON(http.StatusOK, TranslationsResponse{Language: lang, Translation: i18n.T(lang), Messages: i18n.M(lang)})
}
