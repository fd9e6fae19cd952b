package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playlog/internal/domain"
	"playlog/internal/service"
	httpez "playlog/internal/transport/http/ez"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler { return &PostHandler{posts: posts} }

func (h *PostHandler) Priority() int { return 40 }

func (h *PostHandler) MountAPI(pub, authed httpez.EZ) {
	httpez.RegisterAction(pub, httpez.Action[struct{}, []domain.Post]{
		Method: http.MethodGet,
		Path:   "/posts",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Post, error) {
			return h.posts.List(c.Request.Context())
		},
	})
	httpez.RegisterAction(authed, httpez.Action[service.PostInput, *domain.Post]{
		Method: http.MethodPost,
		Path:   "/posts",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.PostInput) (*domain.Post, error) {
			return h.posts.Create(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(pub, httpez.Action[struct{}, *domain.Post]{
		Method: http.MethodGet,
		Path:   "/posts/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Post, error) {
			return h.posts.Get(c.Request.Context(), c.Param("id"))
		},
	})
	httpez.RegisterAction(authed, httpez.Action[service.PostInput, *domain.Post]{
		Method: http.MethodPut,
		Path:   "/posts/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.PostInput) (*domain.Post, error) {
			return h.posts.Update(c.Request.Context(), c.Param("id"), *in)
		},
	})
	httpez.RegisterAction(authed, httpez.Action[struct{}, *domain.Post]{
		Method: http.MethodDelete,
		Path:   "/posts/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Post, error) {
			return h.posts.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}
