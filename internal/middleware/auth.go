package middleware

import (
	"context"
	"strings"

	"online_course_backend/internal/config"
	"online_course_backend/internal/model"
	"online_course_backend/internal/util"
	"online_course_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionChecker 校验会话是否仍然有效。被新登录挤掉的会话在这里被拒
type SessionChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

func AuthMiddleware(cfg *config.Config, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		// token 本身有效还不够，会话必须还活着。
		// 同账号在别处登录后，旧会话已被删除，这里返回 401
		alive, err := sessions.Exists(c.Request.Context(), claims.SessionID)
		if err != nil {
			logger.Log.Error("会话校验失败", zap.String("sessionId", claims.SessionID), zap.Error(err))
			util.InternalServerError(c)
			c.Abort()
			return
		}
		if !alive {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// OptionalAuthMiddleware 带 token 就解析身份，不带也放行。
// 课程目录这类公开接口用它来给已登录用户标注解锁状态
func OptionalAuthMiddleware(cfg *config.Config, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			c.Next()
			return
		}
		if alive, err := sessions.Exists(c.Request.Context(), claims.SessionID); err != nil || !alive {
			c.Next()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有全部权限，直接放行
			if user.Role == model.Admin {
				hasRole = true
				break
			}
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			// 异步更新，不阻塞主流程
			go repo.UpdateLastSeen(claims.UserID)
		}
		c.Next()
	}
}
