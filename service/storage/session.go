package storage

import (
	"context"
	"encoding/json"
	"time"

	redisc "LiveDesk/service/storage/redis"
	"LiveDesk/tools/errs"

	"github.com/redis/go-redis/v9"
)

// 客服会话：以令牌指纹为键存 redis，TTL 与令牌一致。
// WS 握手时除了验签还要求会话仍在——登出或过期后令牌立即失效。
const sessionKeyPrefix = "ld:op:sess:"

type OperatorSession struct {
	Operator  string    `json:"operator"`
	LoginAt   time.Time `json:"login_at"`
	ExpireAt  time.Time `json:"expire_at"`
	TokenHash string    `json:"token_hash"`
}

func sessionKey(tokenHash string) string {
	return sessionKeyPrefix + tokenHash
}

// SaveSession 写入会话，TTL 到期 redis 自行清理
func SaveSession(ctx context.Context, sess *OperatorSession) error {
	if sess == nil || sess.TokenHash == "" {
		return errs.ErrArgs.WithDetail("empty session")
	}
	ttl := time.Until(sess.ExpireAt)
	if ttl <= 0 {
		return errs.ErrArgs.WithDetail("session already expired")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return errs.Wrap(err)
	}
	return errs.Wrap(redisc.GetRedis().Set(ctx, sessionKey(sess.TokenHash), raw, ttl).Err())
}

// LoadSession 取会话；不存在返回 ErrTokenInvalid
func LoadSession(ctx context.Context, tokenHash string) (*OperatorSession, error) {
	raw, err := redisc.GetRedis().Get(ctx, sessionKey(tokenHash)).Bytes()
	if err == redis.Nil {
		return nil, errs.ErrTokenInvalid
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	sess := &OperatorSession{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, errs.Wrap(err)
	}
	return sess, nil
}

// DropSession 登出
func DropSession(ctx context.Context, tokenHash string) error {
	return errs.Wrap(redisc.GetRedis().Del(ctx, sessionKey(tokenHash)).Err())
}
