package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Origin 访客挂件跨域：放开 CORS，预检直接 204。
// 真正的准入在 WS 握手和客服鉴权里做，这里只管浏览器策略。
func Origin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
