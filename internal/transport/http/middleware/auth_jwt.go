package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"playlog/internal/core/auth"
	"playlog/internal/domain"
	httpez "playlog/internal/transport/http/ez"
)

type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthJWT 解析 Bearer token，把对应用户挂到上下文
func AuthJWT(j *auth.JWTer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			httpez.Fail(c, httpez.Unauthorized("missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		if err != nil {
			httpez.Fail(c, httpez.Unauthorized("invalid token"))
			return
		}
		u, err := users.FindByID(c.Request.Context(), claims.UserID())
		if err != nil {
			httpez.Fail(c, err)
			return
		}
		if u == nil {
			httpez.Fail(c, httpez.Unauthorized("invalid token"))
			return
		}
		httpez.SetUser(c, u)
		c.Next()
	}
}

// RequireSelf 路径中的 :param 必须是当前用户
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := httpez.CurrentUser(c)
		if !ok {
			httpez.Fail(c, httpez.Unauthorized("unauthorized"))
			return
		}
		if !strings.EqualFold(strings.TrimSpace(c.Param(param)), u.Username) {
			httpez.Fail(c, httpez.Forbidden("forbidden"))
			return
		}
		c.Next()
	}
}
