package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"playlog/internal/core/storage"
	httpez "playlog/internal/transport/http/ez"
)

type UploadSigner interface {
	SignUpload(ctx context.Context, key string) (*storage.SignedUpload, error)
}

// UploadHandler 直传签名；响应体不走统一包装，失败时 422 空响应
type UploadHandler struct {
	signer UploadSigner
	log    *zap.Logger
}

func NewUploadHandler(signer UploadSigner, l *zap.Logger) *UploadHandler {
	return &UploadHandler{signer: signer, log: l}
}

func (h *UploadHandler) Priority() int { return 50 }

func (h *UploadHandler) MountAPI(pub, _ httpez.EZ) {
	pub.Handle(http.MethodGet, "/sign-s3", func(c *gin.Context) {
		if h.signer == nil {
			c.AbortWithStatus(http.StatusUnprocessableEntity)
			return
		}
		out, err := h.signer.SignUpload(c.Request.Context(), c.Query("file-name"))
		if err != nil {
			h.log.Warn("sign upload failed", zap.String("file", c.Query("file-name")), zap.Error(err))
			c.AbortWithStatus(http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
