package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"playlog/internal/domain"
	"playlog/pkg/utils"
)

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService 用户身份与资料
type UserService struct {
	users  domain.UserRepository
	tokens TokenIssuer
	log    *zap.Logger
}

func NewUserService(users domain.UserRepository, tokens TokenIssuer, l *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: l.Named("users")}
}

func normalizeIdent(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := normalizeIdent(in.Username)
	email := normalizeIdent(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: you must provide username, email and password", domain.ErrValidation)
	}
	if err := errors.Join(
		domain.CheckLen("username", username, domain.MaxUsernameLen),
		domain.CheckLen("email", email, domain.MaxEmailLen),
		domain.CheckPassword(in.Password),
	); err != nil {
		return nil, err
	}

	byEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	byName, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if byEmail != nil || byName != nil {
		return nil, fmt.Errorf("%w: user is taken", domain.ErrConflict)
	}

	u := &domain.User{
		ID:       utils.NewID(),
		Username: username,
		Email:    email,
		Socials:  map[string]string{},
	}
	u.SetPassword(in.Password)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))

	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: tok, User: u}, nil
}

// SignIn identifier 可以是用户名或邮箱
func (s *UserService) SignIn(ctx context.Context, identifier, password string) (*AuthResult, error) {
	ident := normalizeIdent(identifier)
	if ident == "" || password == "" {
		return nil, fmt.Errorf("%w: you must provide email and password", domain.ErrValidation)
	}
	var (
		u   *domain.User
		err error
	)
	if strings.Contains(ident, "@") {
		u, err = s.users.FindByEmail(ctx, ident)
	} else {
		u, err = s.users.FindByUsername(ctx, ident)
	}
	if err != nil {
		return nil, err
	}
	if u == nil || !s.VerifyPassword(u, password) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: tok, User: u}, nil
}

func (s *UserService) IssueToken(u *domain.User) (string, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

func (s *UserService) VerifyPassword(u *domain.User, candidate string) bool {
	return u.VerifyPassword(candidate)
}

// FindByUsername 未找到返回 (nil, nil)
func (s *UserService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = normalizeIdent(username)
	if username == "" {
		return nil, fmt.Errorf("%w: you must provide a username", domain.ErrValidation)
	}
	return s.users.FindByUsername(ctx, username)
}

func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, username string, patch *domain.ProfilePatch) (*domain.User, error) {
	if normalizeIdent(username) == "" || patch == nil {
		return nil, fmt.Errorf("%w: you must provide a user and username", domain.ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	newName := normalizeIdent(patch.Username)

	return mutateUser(ctx, s.users, username, func(u *domain.User) ([]string, error) {
		if newName != "" && newName != u.Username {
			taken, err := s.users.FindByUsername(ctx, newName)
			if err != nil {
				return nil, err
			}
			if taken != nil {
				return nil, fmt.Errorf("%w: username is taken", domain.ErrConflict)
			}
			u.Username = newName
		}
		u.Bio = patch.Bio
		u.Website = patch.Website
		u.Socials = patch.Socials
		if u.Socials == nil {
			u.Socials = map[string]string{}
		}
		u.AvatarURL = patch.AvatarURL
		if patch.Password != "" {
			u.SetPassword(patch.Password)
		}
		return []string{"username", "bio", "website", "socials", "avatar_url"}, nil
	})
}

func (s *UserService) UpdateAvatar(ctx context.Context, username, url string) error {
	if normalizeIdent(username) == "" || strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: you must provide a username and avatar URL", domain.ErrValidation)
	}
	if err := domain.CheckLen("avatarUrl", strings.TrimSpace(url), domain.MaxAvatarURLLen); err != nil {
		return err
	}
	_, err := mutateUser(ctx, s.users, username, func(u *domain.User) ([]string, error) {
		u.AvatarURL = strings.TrimSpace(url)
		return []string{"avatar_url"}, nil
	})
	return err
}

// mutateUser 读取-修改-CAS 写回；版本冲突时重新读取并重放 fn，直到成功或 ctx 结束。
// 每一轮至少有一个写者成功，因此并发写者终会全部完成
func mutateUser(ctx context.Context, users domain.UserRepository, username string,
	fn func(u *domain.User) ([]string, error)) (*domain.User, error) {
	username = normalizeIdent(username)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u, err := users.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
		}
		cols, err := fn(u)
		if err != nil {
			return nil, err
		}
		err = users.Update(ctx, u, cols...)
		if errors.Is(err, domain.ErrStaleWrite) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return u, nil
	}
}
