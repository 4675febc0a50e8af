package security

import (
	"net/http"
	"strings"

	"LiveDesk/global"
	storage "LiveDesk/service/storage"
	"LiveDesk/tools/errs"
	sec "LiveDesk/tools/security"

	"github.com/gin-gonic/gin"
)

// —— context key ——
// 通过鉴权后，后续 handler 统一用这俩 key 读取
const (
	CtxOperatorKey  = "operator"
	CtxTokenHashKey = "tokenHash"
)

type Options struct {
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware 客服路由鉴权：验签 + redis 会话都通过才放行。
// 令牌只是凭证，会话才是准入（登出即失效）。
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		// 兼容 Authorization: Bearer xxx
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		opID, err := sec.Verify(sec.DefaultOptions(global.GetJwtSecret()), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}
		hash := sec.HashToken(token)
		if _, err := storage.LoadSession(c.Request.Context(), hash); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		c.Set(CtxOperatorKey, opID)
		c.Set(CtxTokenHashKey, hash)
		c.Next()
	}
}
