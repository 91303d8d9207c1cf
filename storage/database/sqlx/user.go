package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

const (
	userColumns    = "id, email, password_hash, is_active, created_at, updated_at, last_login"
	profileColumns = "id, name, mobile, email, created_at, updated_at"
)

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{baseRepository{exec: exec}}
}

// mapUniqueErr turns unique violations on email & mobile into the user errors.
func (repo userRepository) mapUniqueErr(err error, msg string) error {
	if constraint, ok := uniqueConstraint(err); ok {
		if strings.Contains(constraint, "mobile") {
			return user.ErrMobileExists
		}
		return user.ErrUserExists
	}
	return wrapErr(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, email, mobile, excludedID string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	var exists bool

	if email != "" {
		q := "SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id::text <> $2)"
		if err := exe.GetContext(ctx, &exists, q, email, excludedID); err != nil {
			return wrapErr(err, "checking email uniqueness")
		}
		if exists {
			return user.ErrUserExists
		}
	}
	if mobile != "" {
		q := "SELECT EXISTS (SELECT 1 FROM profiles WHERE mobile = $1 AND id::text <> $2)"
		if err := exe.GetContext(ctx, &exists, q, mobile, excludedID); err != nil {
			return wrapErr(err, "checking mobile uniqueness")
		}
		if exists {
			return user.ErrMobileExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.NewString()
	q := "INSERT INTO users (" + userColumns + ") " +
		"VALUES (:id, :email, :password_hash, :is_active, :created_at, :updated_at, :last_login)"
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, usr); err != nil {
		return user.User{}, repo.mapUniqueErr(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		usr  user.User
		q    = "SELECT " + userColumns + " FROM users WHERE "
		args []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q += "id = $1"
		args = append(args, filter.ID)
	case filter.Email != "":
		q += "LOWER(email) = LOWER($1)"
		args = append(args, filter.Email)
	case filter.Mobile != "":
		q += "id = (SELECT id FROM profiles WHERE mobile = $1)"
		args = append(args, filter.Mobile)
	default:
		return user.User{}, user.ErrNotFound
	}

	if err := repo.getExec(exec).GetContext(ctx, &usr, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `UPDATE users SET email = :email, password_hash = :password_hash, is_active = :is_active,
		updated_at = :updated_at, last_login = :last_login WHERE id = :id`
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, usr)
	if err != nil {
		return user.User{}, repo.mapUniqueErr(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) CreateProfile(ctx context.Context, prof user.Profile, exec ...core.DBExecutor) (user.Profile, error) {
	q := "INSERT INTO profiles (" + profileColumns + ") VALUES (:id, :name, :mobile, :email, :created_at, :updated_at)"
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, prof); err != nil {
		return user.Profile{}, repo.mapUniqueErr(err, "inserting profile")
	}
	return prof, nil
}

func (repo userRepository) GetProfile(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.Profile, error) {
	var (
		prof user.Profile
		q    = "SELECT " + profileColumns + " FROM profiles WHERE "
		arg  string
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.Profile{}, user.ErrNotFound
		}
		q, arg = q+"id = $1", filter.ID
	case filter.Mobile != "":
		q, arg = q+"mobile = $1", filter.Mobile
	case filter.Email != "":
		q, arg = q+"LOWER(email) = LOWER($1)", filter.Email
	default:
		return user.Profile{}, user.ErrNotFound
	}

	if err := repo.getExec(exec).GetContext(ctx, &prof, q, arg); err != nil {
		return user.Profile{}, trapNoRowsErr(err, user.ErrNotFound, "finding profile")
	}
	return prof, nil
}

func (repo userRepository) UpdateProfile(ctx context.Context, prof user.Profile, exec ...core.DBExecutor) (user.Profile, error) {
	q := "UPDATE profiles SET name = :name, mobile = :mobile, email = :email, updated_at = :updated_at WHERE id = :id"
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, prof)
	if err != nil {
		return user.Profile{}, repo.mapUniqueErr(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.Profile{}, user.ErrNotFound
	}
	return prof, nil
}
