package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sharemeal/console/pkg/logger"
	"github.com/sharemeal/console/pkg/ratelimit"
)

// Claims 会话令牌声明
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// gin context keys
const (
	ClaimsKey      = "auth_claims"
	BearerTokenKey = "bearer_token"
)

// GinAuthMiddleware 解析并校验 Bearer JWT，将声明与原始令牌写入 gin context。
// 受保护接口缺少凭证属于调用方编程错误，直接 401 终止。
func GinAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header format"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Warn(c.Request.Context(), "Token validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token missing user_id"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(BearerTokenKey, parts[1])
		c.Next()
	}
}

// GetClaims 从 gin context 中取出会话声明
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// GetBearerToken 从 gin context 中取出原始 Bearer 令牌
func GetBearerToken(c *gin.Context) string {
	return c.GetString(BearerTokenKey)
}

// GinRateLimitMiddleware 按用户限流，用于提交类接口
func GinRateLimitMiddleware(limiter ratelimit.RateLimiter, prefix string, limit ratelimit.Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := prefix + ":" + c.ClientIP()
		if claims, ok := GetClaims(c); ok {
			key = prefix + ":" + claims.UserID
		}

		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// 限流器故障时放行，不阻塞业务
			logger.Warn(c.Request.Context(), "rate limit check failed", "error", err)
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
