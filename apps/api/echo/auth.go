package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

const (
	contextClaimsKey  = "userClaims"
	contextUserKey    = "user"
	contextProfileKey = "profile"
	bearerPrefix      = "Bearer "
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
}

// tokenIssuer signs & parses the session tokens.
type tokenIssuer struct {
	secretKey       []byte
	issuer          string
	expDelta        time.Duration
	refreshExpDelta time.Duration
	nowFunc         func() time.Time
	sessions        user.SessionStore
}

func newTokenIssuer(conf *core.Config, sessions user.SessionStore) *tokenIssuer {
	return &tokenIssuer{
		secretKey:       []byte(conf.SecretKey),
		issuer:          conf.AppName,
		expDelta:        conf.Server.JWTExpirationDelta,
		refreshExpDelta: conf.Server.JWTRefreshExpirationDelta,
		nowFunc:         time.Now,
		sessions:        sessions,
	}
}

// userClaims makes fresh claims for `usr`; `origIat` carries the first login time across refreshes.
func (ti *tokenIssuer) userClaims(usr user.User, origIat ...int64) *Claims {
	now := ti.nowFunc()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			Subject:   usr.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (ti *tokenIssuer) generateToken(claims *Claims) (string, error) {
	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString(ti.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (ti *tokenIssuer) parseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (interface{}, error) { return ti.secretKey, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithTimeFunc(ti.nowFunc),
	)
	if err != nil || !token.Valid {
		return nil, errJWTInvalid
	}
	return claims, nil
}

// jwtMiddleware rejects requests without a valid, unrevoked bearer token.
func (ti *tokenIssuer) jwtMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(auth, bearerPrefix) || len(auth) == len(bearerPrefix) {
			return errJWTMissing
		}

		claims, err := ti.parseToken(auth[len(bearerPrefix):])
		if err != nil {
			return err
		}
		revoked, err := ti.sessions.IsRevoked(ctx.Request().Context(), claims.ID)
		if err != nil {
			return errors.Wrap(err, "checking session revocation")
		}
		if revoked {
			return errJWTInvalid
		}

		ctx.Set(contextClaimsKey, claims)
		return next(ctx)
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func getContextProfile(ctx echo.Context, svc user.Service) (user.Profile, error) {
	if prof, ok := ctx.Get(contextProfileKey).(user.Profile); ok {
		return prof, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "getting context claims")
	}
	prof, err := svc.GetProfile(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "finding profile")
	}
	ctx.Set(contextProfileKey, prof)
	return prof, nil
}

// refreshToken issues a new token for the context user, as long as the first login is recent enough.
func (ti *tokenIssuer) refreshToken(ctx echo.Context, svc user.Service) (string, *Claims, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", nil, errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", nil, user.ErrAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(ti.refreshExpDelta)
	if ti.nowFunc().After(expTime) {
		return "", nil, errRefreshExpired
	}

	newClaims := ti.userClaims(usr, claims.OrigIssuedAt)
	token, err := ti.generateToken(newClaims)
	if err != nil {
		return "", nil, errors.Wrap(err, "generating token")
	}

	// the previous token is superseded
	if claims.ExpiresAt != nil {
		if err := ti.sessions.Revoke(ctx.Request().Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			return "", nil, errors.Wrap(err, "revoking previous token")
		}
	}
	return token, newClaims, nil
}
