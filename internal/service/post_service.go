package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"playlog/internal/domain"
	"playlog/pkg/utils"
)

type PostInput struct {
	Title string `json:"title"`
}

type PostService struct {
	posts domain.PostRepository
	log   *zap.Logger
}

func NewPostService(posts domain.PostRepository, l *zap.Logger) *PostService {
	return &PostService{posts: posts, log: l.Named("posts")}
}

func (s *PostService) Create(ctx context.Context, in PostInput) (*domain.Post, error) {
	if err := domain.CheckLen("title", in.Title, domain.MaxTitleLen); err != nil {
		return nil, err
	}
	p := &domain.Post{ID: utils.NewID(), Title: in.Title}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List 按创建时间倒序
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListNewest(ctx)
}

func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	return p, nil
}

// Update 先写后读；并发写入时返回值可能反映更晚的写
func (s *PostService) Update(ctx context.Context, id string, in PostInput) (*domain.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}
	if err := domain.CheckLen("title", in.Title, domain.MaxTitleLen); err != nil {
		return nil, err
	}
	n, err := s.posts.UpdateTitle(ctx, id, in.Title)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete 返回被删除的记录
func (s *PostService) Delete(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.posts.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	s.log.Debug("post deleted", zap.String("post_id", id))
	return p, nil
}
