package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playlog/internal/domain"
	"playlog/internal/service"
	httpez "playlog/internal/transport/http/ez"
	mdw "playlog/internal/transport/http/middleware"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler { return &UserHandler{users: users} }

func (h *UserHandler) Priority() int { return 20 }

type meOut struct {
	User *domain.User `json:"user"`
}

type profileIn struct {
	User *domain.ProfilePatch `json:"user"`
}

type avatarIn struct {
	URL string `json:"url"`
}

func (h *UserHandler) MountAPI(pub, authed httpez.EZ) {
	httpez.RegisterAction(authed, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			u, _ := httpez.CurrentUser(c)
			return meOut{User: u}, nil
		},
	})

	get := func(c *gin.Context, _ *struct{}) (*domain.User, error) {
		u, err := h.users.FindByUsername(c.Request.Context(), c.Param("username"))
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, httpez.NotFound("user not found")
		}
		return u, nil
	}
	httpez.RegisterAction(pub, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/users/:username", Binder: httpez.BindNone, Handler: get,
	})
	httpez.RegisterAction(pub, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/users/:username/user-info", Binder: httpez.BindNone, Handler: get,
	})

	httpez.RegisterAction(authed, httpez.Action[profileIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:username",
		Binder: httpez.BindJSON,
		Auth:   true,
		Pre:    []gin.HandlerFunc{mdw.RequireSelf("username")},
		Handler: func(c *gin.Context, in *profileIn) (*domain.User, error) {
			return h.users.UpdateProfile(c.Request.Context(), c.Param("username"), in.User)
		},
	})

	httpez.RegisterAction(authed, httpez.Action[avatarIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/users/:username/avatar",
		Binder: httpez.BindJSON,
		Auth:   true,
		Pre:    []gin.HandlerFunc{mdw.RequireSelf("username")},
		Handler: func(c *gin.Context, in *avatarIn) (gin.H, error) {
			if err := h.users.UpdateAvatar(c.Request.Context(), c.Param("username"), in.URL); err != nil {
				return nil, err
			}
			return gin.H{"avatarUrl": in.URL}, nil
		},
	})
}
