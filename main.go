package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	global "LiveDesk/global"
	mid "LiveDesk/middleware"
	"LiveDesk/module/chat/store"
	"LiveDesk/module/health"
	"LiveDesk/module/operator"
	"LiveDesk/service/chat"
	mgoSrv "LiveDesk/service/mgo"
	redisSrv "LiveDesk/service/storage/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 只在本地开发存在，线上直接读环境变量
	_ = godotenv.Load()

	global.ConfigAll()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1) 等存储就绪，建索引（visitor_id 唯一 + created_at TTL）
	bootCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer cancel()
	if err := mgoSrv.WaitReady(bootCtx); err != nil {
		log.Fatalf("mongo not ready: %v (last: %v)", err, mgoSrv.Err())
	}
	repo := &store.Repo{DB: mgoSrv.GetDB()}
	if err := repo.EnsureIndexes(bootCtx, global.RetentionWindow()); err != nil {
		log.Fatalf("ensure indexes failed: %v", err)
	}

	// 2) 网关实例：房间表 + 存储
	srv := chat.NewServer(repo, chat.NewRouter())

	// 3) HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery(), mid.Origin())

	r.GET("/chat", srv.HandleWS) // 访客: ws://host/chat；客服: ws://host/chat?operator=1&token=...
	r.GET("/healthz", health.HandlerHealth)
	mid.POST(r, "/operator/login", operator.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/operator/logout", operator.HandlerLogout, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/operator/check", operator.HandlerCheck, mid.RouteOpt{IsAuth: true})

	httpSrv := &http.Server{Addr: global.Conf().HTTPAddr, Handler: r}
	go func() {
		log.Printf("[HTTP] Listening on %s", global.Conf().HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// 传输层起不来属于致命错误，直接退出不做托管重启
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 4) 收到 SIGINT/SIGTERM：先停收新连接，再断 redis；mongo 客户端随进程退出
	<-rootCtx.Done()
	log.Printf("[Main] shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		log.Printf("[HTTP] shutdown: %v", err)
	}
	if err := redisSrv.CloseRedis(); err != nil {
		log.Printf("[Redis] close: %v", err)
	}
}
