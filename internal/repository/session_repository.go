package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 登录会话存储（Redis）。
// session:<id> 记录会话归属，user_sessions:<uid> 维护该账号全部存活会话
type SessionRepository struct {
	RDB *redis.Client
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{RDB: rdb}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userSessionsKey(userID uint) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

func (r *SessionRepository) Create(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error {
	pipe := r.RDB.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), strconv.FormatUint(uint64(userID), 10), ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), sessionID)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteOthers 删除该账号下除 exceptID 外的所有会话，返回删除数量
func (r *SessionRepository) DeleteOthers(ctx context.Context, userID uint, exceptID string) (int64, error) {
	ids, err := r.RDB.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, id := range ids {
		if id == exceptID {
			continue
		}
		if err := r.RDB.Del(ctx, sessionKey(id)).Err(); err != nil {
			return deleted, err
		}
		r.RDB.SRem(ctx, userSessionsKey(userID), id)
		deleted++
	}
	return deleted, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string, userID uint) error {
	pipe := r.RDB.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(userID), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// Exists 会话是否仍存活；已被挤下线或过期的会话返回 false
func (r *SessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, err := r.RDB.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
