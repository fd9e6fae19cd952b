package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"playlog/internal/domain"
	"playlog/internal/service"
	httpez "playlog/internal/transport/http/ez"
	mdw "playlog/internal/transport/http/middleware"
)

type LibraryHandler struct {
	library *service.LibraryService
}

func NewLibraryHandler(library *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

func (h *LibraryHandler) Priority() int { return 30 }

type entryIn struct {
	Game   *domain.Game   `json:"game"`
	Review *domain.Review `json:"review"`
}

type removeIn struct {
	GameID string `json:"gameId"`
}

func (h *LibraryHandler) MountAPI(pub, authed httpez.EZ) {
	const path = "/users/:username/games"
	self := []gin.HandlerFunc{mdw.RequireSelf("username")}

	httpez.RegisterAction(pub, httpez.Action[struct{}, []domain.Game]{
		Method: http.MethodGet,
		Path:   path,
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Game, error) {
			return h.library.ListGames(c.Request.Context(), c.Param("username"))
		},
	})

	httpez.RegisterAction(authed, httpez.Action[entryIn, *service.LogResult]{
		Method: http.MethodPost,
		Path:   path,
		Binder: httpez.BindJSON,
		Auth:   true,
		Pre:    self,
		Handler: func(c *gin.Context, in *entryIn) (*service.LogResult, error) {
			return h.library.LogGame(c.Request.Context(), c.Param("username"), in.Game, in.Review)
		},
	})

	httpez.RegisterAction(authed, httpez.Action[entryIn, *domain.User]{
		Method: http.MethodPut,
		Path:   path,
		Binder: httpez.BindJSON,
		Auth:   true,
		Pre:    self,
		Handler: func(c *gin.Context, in *entryIn) (*domain.User, error) {
			return h.library.UpdateGameEntry(c.Request.Context(), c.Param("username"), in.Game, in.Review)
		},
	})

	httpez.RegisterAction(authed, httpez.Action[removeIn, *domain.User]{
		Method: http.MethodDelete,
		Path:   path,
		Binder: httpez.BindJSON,
		Auth:   true,
		Pre:    self,
		Handler: func(c *gin.Context, in *removeIn) (*domain.User, error) {
			return h.library.RemoveGameEntry(c.Request.Context(), c.Param("username"), in.GameID)
		},
	})
}
