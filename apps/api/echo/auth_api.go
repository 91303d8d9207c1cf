package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type authApi struct {
	svc      user.Service
	tokens   *tokenIssuer
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

func registerAuthAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	tokens *tokenIssuer,
	svc user.Service,
	validate *validator.Validate,
	uni *ut.UniversalTranslator,
) {
	api := authApi{
		svc:      svc,
		tokens:   tokens,
		validate: validate,
		uni:      uni,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.POST("/logout", api.logout, jwt)
	ag.GET("/session", api.session, jwt)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

// Handlers

func (api *authApi) signup(ctx echo.Context) error {
	var data user.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, prof, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	resp, err := api.newSession(usr, prof)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.svc.Authenticate(reqCtx, data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	prof, err := api.svc.GetProfile(reqCtx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	resp, err := api.newSession(usr, prof)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) newSession(usr user.User, prof user.Profile) (SessionResponse, error) {
	claims := api.tokens.userClaims(usr)
	token, err := api.tokens.generateToken(claims)
	if err != nil {
		return SessionResponse{}, errors.Wrap(err, "generating token")
	}
	return SessionResponse{Token: token, ExpiresAt: claims.ExpiresAt.Unix(), Profile: prof}, nil
}

// logout revokes the presented token until it would have expired anyway.
func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.ExpiresAt != nil {
		if err := api.tokens.sessions.Revoke(ctx.Request().Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			return errors.Wrap(err, "revoking session")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) session(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	prof, err := getContextProfile(ctx, api.svc)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return err
	}

	var exp int64
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Unix()
	}
	token := strings.TrimPrefix(ctx.Request().Header.Get(echo.HeaderAuthorization), bearerPrefix)
	return ctx.JSON(http.StatusOK, SessionResponse{Token: token, ExpiresAt: exp, Profile: prof})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, claims, err := api.tokens.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	prof, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Token: token, ExpiresAt: claims.ExpiresAt.Unix(), Profile: prof})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if cause := errors.Cause(err); !(err == nil || cause == user.ErrNotFound || cause == user.ErrAccountDeactivated) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	msgs := i18n.M(requestLanguage(ctx, i18n.Default))
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: msgs.PasswordResetSent})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	msgs := i18n.M(requestLanguage(ctx, i18n.Default))
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: msgs.PasswordResetDone})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SessionResponse struct {
		Token     string       `json:"token"`
		ExpiresAt int64        `json:"expires_at"` // unix seconds
		Profile   user.Profile `json:"profile"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
