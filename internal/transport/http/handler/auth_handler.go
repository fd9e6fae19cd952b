package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"playlog/internal/service"
	httpez "playlog/internal/transport/http/ez"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler { return &AuthHandler{users: users} }

func (h *AuthHandler) Priority() int { return 10 }

type signInIn struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) MountAPI(pub, _ httpez.EZ) {
	httpez.RegisterAction(pub, httpez.Action[signInIn, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/signin",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *signInIn) (*service.AuthResult, error) {
			ident := in.Email
			if strings.TrimSpace(ident) == "" {
				ident = in.Username
			}
			return h.users.SignIn(c.Request.Context(), ident, in.Password)
		},
	})

	httpez.RegisterAction(pub, httpez.Action[service.RegisterInput, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/signup",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*service.AuthResult, error) {
			return h.users.Register(c.Request.Context(), *in)
		},
	})
}
