package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

var (
	errJWTMissing      = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errJWTInvalid      = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired  = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden   = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// localizedHTTPErrors are the app HTTP errors whose message is shown to users.
var localizedHTTPErrors = map[*echo.HTTPError]func(i18n.Messages) string{
	errUnauthorized:    func(m i18n.Messages) string { return m.Unauthorized },
	errRefreshExpired:  func(m i18n.Messages) string { return m.RefreshExpired },
	errHttpForbidden:   func(m i18n.Messages) string { return m.PermissionDenied },
	errTooManyRequests: func(m i18n.Messages) string { return m.TooManyRequests },
}

// statusFor maps the domain sentinels to an HTTP status and a localized message.
func statusFor(err error, m i18n.Messages) (int, string, bool) {
	switch err {
	case user.ErrNotFound:
		return http.StatusNotFound, m.UserNotFound, true
	case student.ErrNotFound:
		return http.StatusNotFound, m.NotFound, true
	case user.ErrInvalidCredentials:
		return http.StatusBadRequest, m.InvalidCredentials, true
	case user.ErrAccountDeactivated:
		return http.StatusForbidden, m.AccountDeactivated, true
	case user.ErrUserExists, user.ErrMobileExists:
		return http.StatusBadRequest, m.AccountExists, true
	case user.ErrInvalidResetLink:
		return http.StatusBadRequest, m.InvalidResetLink, true
	case student.ErrNameRollRequired:
		return http.StatusBadRequest, m.NameRollRequired, true
	case student.ErrNothingToExport:
		return http.StatusBadRequest, m.NothingToExport, true
	}
	return 0, "", false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Messages are localized in the request language.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.ShutdownError is caught.
func newAppHTTPErrorHandler(logger core.Logger, uni *ut.UniversalTranslator, fallback i18n.Language, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		lang := requestLanguage(ctx, fallback)
		msgs := i18n.M(lang)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
			if localize, ok := localizedHTTPErrors[origErr]; ok {
				message = localize(msgs)
			} else if code == http.StatusNotFound {
				message = msgs.NotFound
			}
		case validator.ValidationErrors:
			trans := core.Translator(uni, lang)
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(trans)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			_, localized, known := statusFor(origErr.Err, msgs)
			if len(origErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
					if known {
						fldErrs[fErr.Field] = localized
					}
				}
				message = fldErrs
			} else if known {
				message = localized
			} else {
				message = origErr.Error()
			}
		default:
			if status, localized, ok := statusFor(origErr, msgs); ok {
				code = status
				message = localized
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msgs.ServerError

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
