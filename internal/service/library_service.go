package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"playlog/internal/domain"
)

// LibraryService 用户游戏库：game id → review
type LibraryService struct {
	users   domain.UserRepository
	catalog *CatalogService
	log     *zap.Logger
}

func NewLibraryService(users domain.UserRepository, catalog *CatalogService, l *zap.Logger) *LibraryService {
	return &LibraryService{users: users, catalog: catalog, log: l.Named("library")}
}

type LogResult struct {
	User *domain.User `json:"user"`
	Game *domain.Game `json:"newGame"`
}

func validateEntry(username string, game *domain.Game, review *domain.Review) error {
	if strings.TrimSpace(username) == "" || game == nil || strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("%w: you must provide username and game", domain.ErrValidation)
	}
	return review.Normalize()
}

// LogGame 写入/覆盖库条目，然后确保目录中存在该游戏。
// 第二步失败时第一步已持久化，不回滚
func (s *LibraryService) LogGame(ctx context.Context, username string, game *domain.Game, review *domain.Review) (*LogResult, error) {
	if err := validateEntry(username, game, review); err != nil {
		return nil, err
	}
	u, err := s.setEntry(ctx, username, game.ID, review)
	if err != nil {
		return nil, err
	}
	g, err := s.catalog.EnsureGame(ctx, game)
	if err != nil {
		s.log.Error("ensure game after log", zap.String("game_id", game.ID), zap.Error(err))
		return nil, err
	}
	return &LogResult{User: u, Game: g}, nil
}

// UpdateGameEntry 只改库条目，不碰目录
func (s *LibraryService) UpdateGameEntry(ctx context.Context, username string, game *domain.Game, review *domain.Review) (*domain.User, error) {
	if err := validateEntry(username, game, review); err != nil {
		return nil, err
	}
	return s.setEntry(ctx, username, game.ID, review)
}

func (s *LibraryService) setEntry(ctx context.Context, username, gameID string, review *domain.Review) (*domain.User, error) {
	u, err := mutateUser(ctx, s.users, username, func(u *domain.User) ([]string, error) {
		if u.Games == nil {
			u.Games = domain.Library{}
		}
		u.Games.Set(gameID, review)
		return []string{"games"}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("library entry set", zap.String("user_id", u.ID), zap.String("game_id", gameID))
	return u, nil
}

func (s *LibraryService) RemoveGameEntry(ctx context.Context, username, gameID string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("%w: you must provide username and game", domain.ErrValidation)
	}
	return mutateUser(ctx, s.users, username, func(u *domain.User) ([]string, error) {
		if u.Games == nil {
			return nil, domain.ErrEmptyLibrary
		}
		u.Games.Remove(gameID)
		return []string{"games"}, nil
	})
}

// ListGames 返回库中游戏的目录信息（不含 review），顺序不保证
func (s *LibraryService) ListGames(ctx context.Context, username string) ([]domain.Game, error) {
	username = normalizeIdent(username)
	if username == "" {
		return nil, fmt.Errorf("%w: you must provide a username", domain.ErrValidation)
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	if u.Games == nil {
		return []domain.Game{}, nil
	}
	return s.catalog.FindByIDs(ctx, u.Games.GameIDs())
}
