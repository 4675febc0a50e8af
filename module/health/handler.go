package health

import (
	"net/http"

	mgoSrv "LiveDesk/service/mgo"
	redisSrv "LiveDesk/service/storage/redis"

	"github.com/gin-gonic/gin"
)

// HandlerHealth 存活探针。mongo 没就绪给 503（离了 mongo 网关不可用）；
// redis 只上报不拦截，访客链路不依赖它。
func HandlerHealth(c *gin.Context) {
	_, mongoOK := mgoSrv.TryGetDB()
	body := gin.H{"mongo": mongoOK, "redis": redisSrv.Ready()}
	if !mongoOK {
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
