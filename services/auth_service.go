package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Signup(req auth.SignupRequest) (domain.User, error)
	Login(req auth.LoginRequest) (Token, domain.User, error)
	Verify(token string) (*auth.Claims, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	tokens auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens auth.TokenManager) IAuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Signup(req auth.SignupRequest) (domain.User, error) {
	// 1. Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateSignup(req); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password here so the repository never sees plain text.
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist. Propagates ErrUserAlreadyExists when the name is taken.
	return s.users.CreateUser(req.Username, req.AvatarURL, hashedPassword)
}

func (s *AuthService) Login(req auth.LoginRequest) (Token, domain.User, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}

	// The surface contract distinguishes unknown user (404) from bad
	// password (401), so ErrNotFound passes through untranslated.
	user, err := s.users.GetByUsername(req.Username)
	if err != nil {
		return "", domain.User{}, err
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Verify(token string) (*auth.Claims, error) {
	return s.tokens.Verify(token)
}
