package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type userRepository struct {
	users    *userTable
	profiles *profileTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{users: db.user, profiles: db.profile}
}

func (repo *userRepository) CheckUniqueness(_ context.Context, email, mobile, excludedID string, _ ...core.DBExecutor) error {
	if email != "" {
		repo.users.mutex.RLock()
		for id, usr := range repo.users.table {
			if id != excludedID && strings.EqualFold(usr.Email, email) {
				repo.users.mutex.RUnlock()
				return user.ErrUserExists
			}
		}
		repo.users.mutex.RUnlock()
	}
	if mobile != "" {
		repo.profiles.mutex.RLock()
		defer repo.profiles.mutex.RUnlock()
		for id, prof := range repo.profiles.table {
			if id != excludedID && prof.Mobile == mobile {
				return user.ErrMobileExists
			}
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.users.mutex.Lock()
	defer repo.users.mutex.Unlock()

	for _, u := range repo.users.table {
		if strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrUserExists
		}
	}
	usr.ID = uuid.NewString()
	repo.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	if filter.Mobile != "" && filter.ID == "" && filter.Email == "" {
		prof, err := repo.getProfile(filter)
		if err != nil {
			return user.User{}, err
		}
		filter = user.GetFilter{ID: prof.ID}
	}

	repo.users.mutex.RLock()
	defer repo.users.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if usr, ok := repo.users.table[filter.ID]; ok {
			return *usr, nil
		}
	case filter.Email != "":
		for _, usr := range repo.users.table {
			if strings.EqualFold(usr.Email, filter.Email) {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.users.mutex.Lock()
	defer repo.users.mutex.Unlock()

	origUsr, ok := repo.users.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	origUsr.Email = usr.Email
	origUsr.IsActive = usr.IsActive
	origUsr.LastLogin = usr.LastLogin
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

func (repo *userRepository) CreateProfile(_ context.Context, prof user.Profile, _ ...core.DBExecutor) (user.Profile, error) {
	repo.users.mutex.RLock()
	_, ok := repo.users.table[prof.ID]
	repo.users.mutex.RUnlock()
	if !ok {
		return user.Profile{}, user.ErrNotFound
	}

	repo.profiles.mutex.Lock()
	defer repo.profiles.mutex.Unlock()
	for _, p := range repo.profiles.table {
		if p.Mobile == prof.Mobile {
			return user.Profile{}, user.ErrMobileExists
		}
	}
	repo.profiles.table[prof.ID] = &prof
	return prof, nil
}

func (repo *userRepository) getProfile(filter user.GetFilter) (user.Profile, error) {
	repo.profiles.mutex.RLock()
	defer repo.profiles.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if prof, ok := repo.profiles.table[filter.ID]; ok {
			return *prof, nil
		}
	case filter.Mobile != "":
		for _, prof := range repo.profiles.table {
			if prof.Mobile == filter.Mobile {
				return *prof, nil
			}
		}
	case filter.Email != "":
		for _, prof := range repo.profiles.table {
			if prof.Email.Valid && strings.EqualFold(prof.Email.String, filter.Email) {
				return *prof, nil
			}
		}
	}
	return user.Profile{}, user.ErrNotFound
}

func (repo *userRepository) GetProfile(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.Profile, error) {
	return repo.getProfile(filter)
}

func (repo *userRepository) UpdateProfile(_ context.Context, prof user.Profile, _ ...core.DBExecutor) (user.Profile, error) {
	repo.profiles.mutex.Lock()
	defer repo.profiles.mutex.Unlock()

	orig, ok := repo.profiles.table[prof.ID]
	if !ok {
		return user.Profile{}, user.ErrNotFound
	}
	for id, p := range repo.profiles.table {
		if id != prof.ID && p.Mobile == prof.Mobile {
			return user.Profile{}, user.ErrMobileExists
		}
	}
	orig.Name = prof.Name
	orig.Mobile = prof.Mobile
	orig.Email = prof.Email
	orig.UpdatedAt = prof.UpdatedAt
	return *orig, nil
}
