package domain

import (
	"context"
	"time"
)

type Post struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	CreatedAt time.Time `gorm:"index;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id string) (*Post, error)
	ListNewest(ctx context.Context) ([]Post, error)
	// UpdateTitle 返回受影响行数
	UpdateTitle(ctx context.Context, id, title string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}
