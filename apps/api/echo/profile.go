package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type profileApi struct {
	svc      user.Service
	validate *validator.Validate
}

func registerProfileAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc user.Service,
	validate *validator.Validate,
	limiter echo.MiddlewareFunc,
) {
	api := profileApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/profiles")

	// un-authed endpoints
	pg.GET("/lookup", api.lookup, limiter)

	// authed endpoints
	pg.GET("/me", api.getMe, jwt)
	pg.PUT("/me", api.updateMe, jwt)
}

// lookup resolves a mobile number to the account email so that clients can log in by mobile.
func (api *profileApi) lookup(ctx echo.Context) error {
	email, err := api.svc.LookupEmailByMobile(ctx.Request().Context(), ctx.QueryParam("mobile"))
	if err != nil {
		return errors.Wrap(err, "looking up email by mobile")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"email": email})
}

func (api *profileApi) getMe(ctx echo.Context) error {
	prof, err := getContextProfile(ctx, api.svc)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return err
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) updateMe(ctx echo.Context) error {
	prof, err := getContextProfile(ctx, api.svc)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return err
	}

	var data user.ProfileUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileUpdate")
	}
	if err := data.Validate(api.validate, prof); err != nil {
		return err
	}

	prof, err = api.svc.UpdateProfile(ctx.Request().Context(), prof.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	ctx.Set(contextProfileKey, prof)
	return ctx.JSON(http.StatusOK, prof)
}
