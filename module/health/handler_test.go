package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// 存储没起来（测试进程里 mongo/redis 都未初始化）：503 + 各组件状态
func TestHandlerHealthStorageDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", HandlerHealth)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := map[string]bool{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body["mongo"])
	require.False(t, body["redis"])
}
