package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"playlog/internal/domain"
)

type GameRepo struct{ db *gorm.DB }

func NewGameRepo(db *gorm.DB) *GameRepo { return &GameRepo{db: db} }

func (r *GameRepo) FindByID(ctx context.Context, id string) (*domain.Game, error) {
	var g domain.Game
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreError("find game", err)
	}
	return &g, nil
}

func (r *GameRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Game, error) {
	games := make([]domain.Game, 0, len(ids))
	if len(ids) == 0 {
		return games, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&games).Error; err != nil {
		return nil, domain.NewStoreError("find games", err)
	}
	return games, nil
}

func (r *GameRepo) CreateIfAbsent(ctx context.Context, g *domain.Game) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(g).Error
	return domain.NewStoreError("create game", err)
}
