package domain

import (
	"context"
	"fmt"
)

// Game 游戏目录条目，ID 来自外部游戏数据库
type Game struct {
	ID          string  `gorm:"primaryKey;size:64" json:"id"`
	Name        string  `gorm:"size:255" json:"name"`
	CoverURL    string  `gorm:"size:512" json:"coverUrl"`
	Summary     string  `gorm:"type:text" json:"summary"`
	ReleaseYear string  `gorm:"size:16" json:"releaseYear"`
	AvgRating   float64 `json:"avgRating"`
}

func (Game) TableName() string { return "games" }

type PlayStatus string

const (
	StatusInProgress PlayStatus = "IN_PROGRESS"
	StatusPlayed     PlayStatus = "PLAYED"
	StatusToPlay     PlayStatus = "TO_PLAY"
	StatusNone       PlayStatus = "NONE"
)

func (s PlayStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusPlayed, StatusToPlay, StatusNone:
		return true
	}
	return false
}

// Review 内嵌在用户游戏库中的评价
type Review struct {
	UserRating float64    `json:"userRating"`
	Status     PlayStatus `json:"status"`
}

// Normalize 补默认状态并校验枚举
func (r *Review) Normalize() error {
	if r == nil {
		return nil
	}
	if r.Status == "" {
		r.Status = StatusNone
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown play status %q", ErrValidation, r.Status)
	}
	return nil
}

// Library 用户游戏库：game id → review（nil 表示已记录但未评价）
type Library map[string]*Review

// Set 覆盖写入单个条目，其它条目不变
func (l Library) Set(gameID string, r *Review) { l[gameID] = r }

// Remove 删除单个条目，不存在时无操作
func (l Library) Remove(gameID string) { delete(l, gameID) }

func (l Library) GameIDs() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	return ids
}

type GameRepository interface {
	FindByID(ctx context.Context, id string) (*Game, error)
	FindByIDs(ctx context.Context, ids []string) ([]Game, error)
	// CreateIfAbsent 插入；主键冲突时静默忽略
	CreateIfAbsent(ctx context.Context, g *Game) error
}
