package ez

import (
	"github.com/gin-gonic/gin"

	"playlog/internal/domain"
)

// KeyUser 鉴权中间件写入的当前用户
const KeyUser = "user"

func SetUser(c *gin.Context, u *domain.User) { c.Set(KeyUser, u) }

func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
