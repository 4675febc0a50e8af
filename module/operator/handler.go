package operator

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"LiveDesk/global"
	midsec "LiveDesk/middleware/security"
	storage "LiveDesk/service/storage"
	redisc "LiveDesk/service/storage/redis"
	security "LiveDesk/tools/security"

	"LiveDesk/logger"

	"github.com/gin-gonic/gin"
)

type loginReq struct {
	Name      string `json:"name" binding:"required"`
	AccessKey string `json:"accessKey" binding:"required"`
}

// HandlerLogin 客服换票：共享口令换 JWT，并在 redis 落会话。
// WS 握手与受保护路由都要求“验签通过 + 会话仍在”。
func HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1001, "msg": "name and accessKey are required"})
		return
	}
	if !redisc.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": 1201, "msg": "session store unavailable"})
		return
	}

	want := global.Conf().OperatorAccessKey
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.AccessKey)), []byte(want)) != 1 {
		logger.Warnf("[Login] bad access key for operator=%s", req.Name)
		c.JSON(http.StatusUnauthorized, gin.H{"code": 1101, "msg": "bad credentials"})
		return
	}

	opts := security.DefaultOptions(global.GetJwtSecret())
	opts.TTL = global.Conf().TokenTTL
	token, hash, exp, err := security.Generate(opts, req.Name)
	if err != nil {
		logger.Errorf("[Login] sign token failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1201, "msg": "sign token failed"})
		return
	}

	sess := &storage.OperatorSession{
		Operator:  req.Name,
		LoginAt:   time.Now(),
		ExpireAt:  exp,
		TokenHash: hash,
	}
	if err := storage.SaveSession(c.Request.Context(), sess); err != nil {
		logger.Errorf("[Login] save session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1201, "msg": "save session failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"expireAt": exp.UnixMilli(),
		"operator": gin.H{"name": req.Name},
	})
}

// HandlerCheck 探活：中间件已经把会话校验完，这里只回显
func HandlerCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"operator": c.GetString(midsec.CtxOperatorKey),
	})
}

// HandlerLogout 登出：删 redis 会话，令牌立即失效
func HandlerLogout(c *gin.Context) {
	hash := c.GetString(midsec.CtxTokenHashKey)
	if err := storage.DropSession(c.Request.Context(), hash); err != nil {
		logger.Warnf("[Logout] drop session failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
