package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
)

var (
	orderingParam = "ordering"
	langParam     = "lang"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=field1,-field2`; a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// requestLanguage picks the language from `?lang=`, then the Accept-Language header.
func requestLanguage(ctx echo.Context, fallback i18n.Language) i18n.Language {
	if lang := i18n.ParseLanguage(ctx.QueryParam(langParam), ""); lang != "" {
		return lang
	}
	return i18n.FromAcceptLanguage(ctx.Request().Header.Get("Accept-Language"), fallback)
}
