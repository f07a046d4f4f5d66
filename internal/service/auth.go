package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/harlequingg/lifestrat-api/internal/auth"
	"github.com/harlequingg/lifestrat-api/internal/data"
)

type AuthResult struct {
	User  *data.User
	Token string
}

type AuthService struct {
	users   *UserService
	spheres *LifeSphereService
	tokens  *auth.TokenService
}

func NewAuthService(users *UserService, spheres *LifeSphereService, tokens *auth.TokenService) *AuthService {
	return &AuthService{
		users:   users,
		spheres: spheres,
		tokens:  tokens,
	}
}

// Register creates the account with its default life spheres and logs it in.
// If the spheres cannot be created the user is removed again, so the same
// username can register on a retry.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	u, err := s.users.CreateUser(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	if _, err := s.spheres.CreateDefaults(ctx, u.ID); err != nil {
		// Deleting the user also drops any spheres already inserted.
		if derr := s.users.Delete(context.WithoutCancel(ctx), u); derr != nil {
			return nil, errors.Join(err, fmt.Errorf("roll back user %s: %w", u.Username, derr))
		}
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *data.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token for %s: %w", u.Username, err)
	}
	return &AuthResult{User: u, Token: token}, nil
}
