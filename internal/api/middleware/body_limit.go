package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// BodyLimit 请求体大小限制
// 声明的 Content-Length 超限时直接拒绝；未声明长度的请求体由 MaxBytesReader 截断，
// 读取超限时 ShouldBindJSON 返回错误，由各 Handler 按参数错误处理
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
