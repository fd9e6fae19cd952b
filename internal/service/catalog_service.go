package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"playlog/internal/core/cache"
	"playlog/internal/domain"
)

var errGameMissing = errors.New("game missing")

// CatalogService 游戏目录；按外部 id 去重，先写者胜
type CatalogService struct {
	games domain.GameRepository
	cache *cache.Cache // 可为 nil
	ttl   time.Duration
	log   *zap.Logger
}

func NewCatalogService(games domain.GameRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *CatalogService {
	return &CatalogService{games: games, cache: c, ttl: ttl, log: l.Named("catalog")}
}

// EnsureGame 已存在则原样返回，否则按描述创建
func (s *CatalogService) EnsureGame(ctx context.Context, desc *domain.Game) (*domain.Game, error) {
	if desc == nil || strings.TrimSpace(desc.ID) == "" {
		return nil, fmt.Errorf("%w: game id is required", domain.ErrValidation)
	}
	existing, err := s.lookup(ctx, desc.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	g := *desc
	if err := s.games.CreateIfAbsent(ctx, &g); err != nil {
		return nil, err
	}
	// 并发插入时以库里那条为准
	stored, err := s.games.FindByID(ctx, desc.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.NewStoreError("ensure game", errGameMissing)
	}
	s.log.Debug("game cataloged", zap.String("game_id", stored.ID))
	return stored, nil
}

func (s *CatalogService) FindByIDs(ctx context.Context, ids []string) ([]domain.Game, error) {
	return s.games.FindByIDs(ctx, ids)
}

func (s *CatalogService) lookup(ctx context.Context, id string) (*domain.Game, error) {
	if s.cache == nil {
		return s.games.FindByID(ctx, id)
	}
	g, err := cache.GetOrLoadJSON(s.cache, ctx, "game:"+id, s.ttl, func(ctx context.Context) (*domain.Game, error) {
		g, err := s.games.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, errGameMissing // 不缓存未命中
		}
		return g, nil
	})
	if errors.Is(err, errGameMissing) {
		return nil, nil
	}
	return g, err
}
