package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"online_course_backend/internal/config"
	"online_course_backend/internal/model"
	"online_course_backend/internal/util"
	"online_course_backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitTestLogger()
}

type fakeSessionChecker struct {
	live map[string]bool
}

func (f *fakeSessionChecker) Exists(ctx context.Context, sessionID string) (bool, error) {
	return f.live[sessionID], nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-test-secret-test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return cfg
}

func issueToken(t *testing.T, cfg *config.Config, sessionID string) string {
	t.Helper()
	user := &model.User{Role: model.Student, Email: "s@example.com"}
	user.ID = 42
	token, err := util.GenerateJWT(user, sessionID, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func protectedRouter(cfg *config.Config, sessions SessionChecker) *gin.Engine {
	router := gin.New()
	router.GET("/protected", AuthMiddleware(cfg, sessions), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID})
	})
	return router
}

func TestAuthMiddlewareLiveSession(t *testing.T) {
	cfg := testConfig()
	sessions := &fakeSessionChecker{live: map[string]bool{"sess-1": true}}
	router := protectedRouter(cfg, sessions)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, cfg, "sess-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

// 单会话策略：新登录挤掉旧会话后，旧 token 虽未过期也必须被拒
func TestAuthMiddlewareEvictedSession(t *testing.T) {
	cfg := testConfig()
	sessions := &fakeSessionChecker{live: map[string]bool{"sess-old": true}}
	router := protectedRouter(cfg, sessions)

	oldToken := issueToken(t, cfg, "sess-old")

	// 模拟同账号在别处登录：旧会话被删，新会话生效
	delete(sessions.live, "sess-old")
	sessions.live["sess-new"] = true

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for evicted session", w.Code)
	}

	// 新会话的 token 正常放行
	req2 := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req2.Header.Set("Authorization", "Bearer "+issueToken(t, cfg, "sess-new"))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w2.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for live session", w2.Code)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	router := protectedRouter(testConfig(), &fakeSessionChecker{live: map[string]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	router := protectedRouter(testConfig(), &fakeSessionChecker{live: map[string]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRoleMiddleware(t *testing.T) {
	cfg := testConfig()

	newRouter := func(role model.UserRole) (*gin.Engine, string) {
		sessions := &fakeSessionChecker{live: map[string]bool{"s": true}}
		user := &model.User{Role: role, Email: "u@example.com"}
		user.ID = 7
		token, err := util.GenerateJWT(user, "s", cfg.JWT.Secret, cfg.JWT.ExpireTime)
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}

		router := gin.New()
		router.GET("/instructor-only",
			AuthMiddleware(cfg, sessions),
			RoleMiddleware(model.Instructor),
			func(c *gin.Context) { c.Status(http.StatusOK) })
		return router, token
	}

	cases := []struct {
		role model.UserRole
		want int
	}{
		{model.Student, http.StatusForbidden},
		{model.Instructor, http.StatusOK},
		{model.Admin, http.StatusOK}, // 管理员放行所有角色组
	}

	for _, tc := range cases {
		router, token := newRouter(tc.role)
		req := httptest.NewRequest(http.MethodGet, "/instructor-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Errorf("role %s: status = %d, want %d", tc.role, w.Code, tc.want)
		}
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	sessions := &fakeSessionChecker{live: map[string]bool{"s": true}}

	router := gin.New()
	router.GET("/catalog", OptionalAuthMiddleware(cfg, sessions), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID})
	})

	// 无 token 也放行
	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d, want 200", w.Code)
	}

	// 失效会话的 token 按匿名处理而不是报错
	req2 := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req2.Header.Set("Authorization", "Bearer "+issueToken(t, cfg, "dead-session"))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("dead session status = %d, want 200", w2.Code)
	}
}
