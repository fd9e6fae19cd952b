package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"playlog/internal/domain"
	resp "playlog/internal/transport/http/response"
)

// EZ 路由分组的轻封装
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

// Group 子分组，可附加中间件
func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mw...), log: e.log}
}

// Handle 注册不走统一响应包装的原始路由
func (e EZ) Handle(method, path string, h ...gin.HandlerFunc) {
	e.g.Handle(method, path, h...)
}

type Binder string

const (
	BindJSON  Binder = "json"  // JSON body
	BindQuery Binder = "query" // ?a=b
	BindNone  Binder = "none"  // 自己从 c.Param 取
)

// AErr 携带业务码的错误
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool                 // 要求已登录（中间件写入 user）
	Pre     []gin.HandlerFunc    // 额外的前置中间件
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			if _, ok := c.Get(KeyUser); !ok {
				Fail(c, Unauthorized("unauthorized"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			Fail(c, BadRequest(bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			if ae := ToAErr(err); ae.Code >= resp.CodeServerError && e.log != nil {
				e.log.Error("action failed",
					zap.String("method", a.Method),
					zap.String("path", c.FullPath()),
					zap.Error(err),
				)
			}
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Pre...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default:
		e.g.POST(a.Path, handlers...)
	}
}

// ToAErr 领域错误 → 业务码
func ToAErr(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	code := resp.CodeServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = resp.CodeBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		code = resp.CodeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		code = resp.CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		code = resp.CodeConflict
	case errors.Is(err, domain.ErrEmptyLibrary):
		code = resp.CodeUnprocessable
	case errors.Is(err, context.DeadlineExceeded):
		code = resp.CodeTimeout // 请求超时（Timeout 中间件）
	}
	msg := err.Error()
	var se *domain.StoreError
	if errors.As(err, &se) {
		msg = "store error: " + se.Op // 不回传驱动细节
	}
	return &AErr{Code: code, Msg: msg, Err: err}
}

func Fail(c *gin.Context, err error) {
	ae := ToAErr(err)
	c.AbortWithStatusJSON(resp.Status(ae.Code), resp.Error(ae.Code, ae.Error()))
}
