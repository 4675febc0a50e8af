package global

import (
	"context"
	"time"

	mgoSrv "LiveDesk/service/mgo"
	redis "LiveDesk/service/storage/redis"
	ids "LiveDesk/tools/ids"

	"LiveDesk/logger"

	"github.com/caarlos0/env/v6"
)

// AppConfig 进程级配置，全部来自环境变量（.env 由 main 里的 godotenv 先行加载）
type AppConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"livedesk"`
	MongoPoolSize int    `env:"MONGO_POOL_SIZE" envDefault:"20"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"2h"`

	// 客服登录口令（简单共享密钥；换成账号体系时只动 module/operator）
	OperatorAccessKey string `env:"OPERATOR_ACCESS_KEY,required"`

	// 会话文档保留天数，TTL 索引挂在 created_at 上
	RetentionDays int `env:"RETENTION_DAYS" envDefault:"15"`

	NodeID int64 `env:"NODE_ID" envDefault:"1"`
}

var conf *AppConfig

func Conf() *AppConfig {
	if conf == nil {
		panic("config not loaded, call ConfigAll first")
	}
	return conf
}

func GetJwtSecret() []byte {
	return []byte(Conf().JWTSecret)
}

func RetentionWindow() time.Duration {
	return time.Duration(Conf().RetentionDays) * 24 * time.Hour
}

func ConfigAll() {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		logger.Log.Fatal("parse config: " + err.Error())
	}
	conf = c

	ConfigIds()
	ConfigRedis()
	ConfigMgo()
}

func ConfigIds() {
	ids.SetNodeID(Conf().NodeID)
}

func ConfigRedis() {
	err := redis.InitRedis(redis.Config{
		Addr:     Conf().RedisAddr,
		Password: Conf().RedisPassword,
		DB:       Conf().RedisDB,
	})
	if err != nil {
		// redis 只承载客服会话；连不上时网关仍可服务访客，客服登录会失败
		logger.Warnf("[Config] redis init failed: %v", err)
	}
}

func ConfigMgo() {
	mgoSrv.StartAsync(context.Background(), &mgoSrv.Config{
		URI:         Conf().MongoURI,
		Database:    Conf().MongoDatabase,
		MaxPoolSize: Conf().MongoPoolSize,
	})
}
