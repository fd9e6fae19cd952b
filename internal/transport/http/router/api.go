package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"playlog/internal/core/auth"
	"playlog/internal/core/config"
	"playlog/internal/core/server"
	httpez "playlog/internal/transport/http/ez"
	mdw "playlog/internal/transport/http/middleware"
)

func NewAPIEngine(l *zap.Logger, hc config.HTTP, jwter *auth.JWTer, users mdw.UserLookup, reg *Registry) *gin.Engine {
	r := server.NewRouter(l)

	limit := mdw.RateLimit
	if hc.RateLimitPerIP {
		limit = mdw.RateLimitPerIP
	}

	// 中间件
	r.Use(
		mdw.RequestID(),
		limit(rate.Limit(hc.RateLimitRPS), hc.RateLimitBurst),
		mdw.ConcurrencyLimit(hc.MaxInFlight),
		mdw.MaxBodyBytes(int64(hc.MaxBodyMB)<<20),
		mdw.Timeout(time.Duration(hc.RequestTimeoutSec)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the playlog API"})
	})

	pub := httpez.New(api, l)
	authed := pub.Group("", mdw.AuthJWT(jwter, users))
	if reg != nil {
		reg.MountAll(pub, authed)
	}
	return r
}
