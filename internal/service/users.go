package service

import (
	"context"
	"fmt"

	"github.com/harlequingg/lifestrat-api/internal/auth"
	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

type UserService struct {
	users storage.UserStore
}

func NewUserService(users storage.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*data.User, error) {
	return s.found(s.users.GetByID(ctx, id))
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*data.User, error) {
	return s.found(s.users.GetByUsername(ctx, username))
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*data.User, error) {
	return s.found(s.users.GetByEmail(ctx, email))
}

func (s *UserService) found(u *data.User, err error) (*data.User, error) {
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, notFound("user")
	}
	return u, nil
}

func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	return u != nil, nil
}

func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	return u != nil, nil
}

// CreateUser stores a new user with a bcrypt hash of password. Username and
// email must both be unused.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (*data.User, error) {
	exists, err := s.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid(ErrDuplicateName, "username", "a user with this username already exists")
	}
	exists, err = s.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid(ErrDuplicateName, "email", "a user with this email address already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &data.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, duplicate(err, "username", "a user with this username or email already exists")
	}
	return u, nil
}

// Authenticate does not reveal whether the username or the password was
// wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, invalid(ErrInvalidCredentials, "", "invalid username or password")
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, invalid(ErrInvalidCredentials, "", "invalid username or password")
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, u *data.User) error {
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user %d: %w", u.ID, err)
	}
	return nil
}
