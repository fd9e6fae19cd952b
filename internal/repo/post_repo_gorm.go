package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"playlog/internal/domain"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	return domain.NewStoreError("create post", r.db.WithContext(ctx).Create(p).Error)
}

func (r *PostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreError("find post", err)
	}
	return &p, nil
}

func (r *PostRepo) ListNewest(ctx context.Context) ([]domain.Post, error) {
	posts := []domain.Post{}
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, domain.NewStoreError("list posts", err)
	}
	return posts, nil
}

func (r *PostRepo) UpdateTitle(ctx context.Context, id, title string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return 0, domain.NewStoreError("update post", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *PostRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		return 0, domain.NewStoreError("delete post", res.Error)
	}
	return res.RowsAffected, nil
}
