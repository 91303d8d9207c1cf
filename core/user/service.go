package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shikkhaloy/shikkhaloy/core"
)

var (
	// errors
	ErrNotFound           = errors.New("not found")
	ErrUserExists         = errors.New("a user with this email already exists")
	ErrMobileExists       = errors.New("a user with this mobile number already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrInvalidResetLink   = errors.New("invalid password reset link")
)

type (
	Repository interface {
		// CheckUniqueness reports ErrUserExists or ErrMobileExists, ignoring the account `excludedID`.
		CheckUniqueness(ctx context.Context, email, mobile, excludedID string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		CreateProfile(ctx context.Context, prof Profile, exec ...core.DBExecutor) (Profile, error)
		GetProfile(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile, exec ...core.DBExecutor) (Profile, error)
	}

	// SessionStore keeps the revoked session IDs until their token would have expired anyway.
	SessionStore interface {
		Revoke(ctx context.Context, sessionID string, until time.Time) error
		IsRevoked(ctx context.Context, sessionID string) (bool, error)
	}

	Service interface {
		Register(ctx context.Context, reg Registration) (User, Profile, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		ResolveIdentifier(ctx context.Context, identifier string) (string, error)
		LookupEmailByMobile(ctx context.Context, mobile string) (string, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetProfile(ctx context.Context, id string) (Profile, error)
		UpdateProfile(ctx context.Context, id string, pu ProfileUpdate) (Profile, error)
		SetPassword(ctx context.Context, identifier, pwd string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		Deactivate(ctx context.Context, identifier string) error
	}

	Options struct {
		SecretKey                 string
		PasswordResetTimeoutDelta time.Duration
	}

	service struct {
		repo    Repository
		tx      core.TxRunner
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, tx core.TxRunner, mailSvc core.EmailService, opts Options) Service {
	return &service{
		repo:    repo,
		tx:      tx,
		mailSvc: mailSvc,
		tokens:  tokenGenerator{secretKey: []byte(opts.SecretKey), timeout: opts.PasswordResetTimeoutDelta},
	}
}

// OptionsFromConfig picks the service options out of the app config.
func OptionsFromConfig(conf *core.Config) Options {
	return Options{SecretKey: conf.SecretKey, PasswordResetTimeoutDelta: conf.PasswordResetTimeoutDelta}
}

func (svc *service) checkUniqueness(ctx context.Context, email, mobile, excludedID string, exec ...core.DBExecutor) error {
	if err := svc.repo.CheckUniqueness(ctx, email, mobile, excludedID, exec...); err != nil {
		var field string
		switch err {
		case ErrUserExists:
			field = "email"
		case ErrMobileExists:
			field = "mobile"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates the principal and its profile in one transaction: either both exist afterwards or neither.
func (svc *service) Register(ctx context.Context, reg Registration) (User, Profile, error) {
	reg.Clean()
	now := NowFunc().UTC()
	usr := User{Email: reg.Email, IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := usr.SetPassword(reg.Password); err != nil {
		return User{}, Profile{}, pkgerrors.Wrap(err, "hashing password")
	}
	prof := Profile{Name: reg.Name, Mobile: reg.Mobile, Email: null.StringFrom(reg.Email), CreatedAt: now, UpdatedAt: now}

	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.checkUniqueness(ctx, reg.Email, reg.Mobile, "", exec); err != nil {
			return err
		}
		var err error
		if usr, err = svc.repo.CreateUser(ctx, usr, exec); err != nil {
			return pkgerrors.Wrap(err, "creating user")
		}
		prof.ID = usr.ID
		if prof, err = svc.repo.CreateProfile(ctx, prof, exec); err != nil {
			return pkgerrors.Wrap(err, "creating profile")
		}
		return nil
	})
	if err != nil {
		return User{}, Profile{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: prof.Name, Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{"Name": prof.Name, "Email": usr.Email, "Mobile": prof.Mobile},
	})
	return usr, prof, nil
}

// Authenticate checks the email/password pair and records the login.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	usr.LastLogin = null.TimeFrom(NowFunc().UTC())
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// ResolveIdentifier turns a login identifier into the account email:
// email-shaped identifiers pass through, anything else is looked up as a mobile number.
func (svc *service) ResolveIdentifier(ctx context.Context, identifier string) (string, error) {
	identifier = core.CleanString(identifier)
	if identifier == "" {
		return "", ErrNotFound
	}
	if IsEmail(identifier) {
		return identifier, nil
	}
	return svc.LookupEmailByMobile(ctx, identifier)
}

func (svc *service) LookupEmailByMobile(ctx context.Context, mobile string) (string, error) {
	mobile = CleanMobile(mobile)
	if mobile == "" {
		return "", ErrNotFound
	}
	prof, err := svc.repo.GetProfile(ctx, GetFilter{Mobile: mobile})
	if err != nil {
		return "", err
	}
	if !prof.Email.Valid || prof.Email.String == "" {
		return "", ErrNotFound
	}
	return prof.Email.String, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetProfile(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{ID: id})
}

// UpdateProfile expects a validated ProfileUpdate (see ProfileUpdate.Validate).
func (svc *service) UpdateProfile(ctx context.Context, id string, pu ProfileUpdate) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: id})
	if err != nil {
		return Profile{}, err
	}
	if pu.Mobile != "" && pu.Mobile != prof.Mobile {
		if err := svc.checkUniqueness(ctx, "", pu.Mobile, id); err != nil {
			return Profile{}, err
		}
		prof.Mobile = pu.Mobile
	}
	if pu.Name != "" {
		prof.Name = pu.Name
	}
	prof.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateProfile(ctx, prof)
}

// getByIdentifier finds a principal by email or by its profile's mobile number.
func (svc *service) getByIdentifier(ctx context.Context, identifier string) (User, error) {
	email, err := svc.ResolveIdentifier(ctx, identifier)
	if err != nil {
		return User{}, err
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) SetPassword(ctx context.Context, identifier, pwd string) error {
	usr, err := svc.getByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = NowFunc().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return pkgerrors.Wrap(err, "updating user")
	}
	return nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrAccountDeactivated
	}
	return svc.sendPasswordResetMail(ctx, usr)
}

func (svc *service) sendPasswordResetMail(ctx context.Context, usr User) error {
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return pkgerrors.Wrap(err, "making password reset token")
	}
	name := usr.Email
	if prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: usr.ID}); err == nil {
		name = prof.Name
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": name, "UID": EncodeUID(usr), "Token": token},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(ErrInvalidResetLink)
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(ErrInvalidResetLink)
		}
		return pkgerrors.Wrap(err, "finding user by ID")
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(ErrInvalidResetLink)
	}
	if err := usr.SetPassword(data.Password); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = NowFunc().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return pkgerrors.Wrap(err, "updating user")
	}
	return nil
}

func (svc *service) Deactivate(ctx context.Context, identifier string) error {
	usr, err := svc.getByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	usr.IsActive = false
	usr.UpdatedAt = NowFunc().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return pkgerrors.Wrap(err, "updating user")
	}
	return nil
}
