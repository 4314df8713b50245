package middleware

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Capacity   int     // Maximum number of tokens (max requests)
	RefillRate float64 // Tokens refilled per second
}

// DefaultRateLimiterConfig returns default rate limiter settings
// 10 requests per second with burst capacity of 20
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   20,
		RefillRate: 10.0,
	}
}

// RateLimiterKeyFunc derives the bucket key for a request. A false return
// means the caller could not be identified and the request is rejected.
type RateLimiterKeyFunc func(c *gin.Context) (string, bool)

// UserKey buckets requests by the authenticated user set by AuthMiddleware.
func UserKey() RateLimiterKeyFunc {
	return func(c *gin.Context) (string, bool) {
		userID, exists := c.Get("userID")
		if !exists {
			return "", false
		}
		return UserRateLimiterKey(userID.(int)), true
	}
}

// ClientIPKey buckets requests by route and source IP, for routes that run
// before authentication (login, refresh)
func ClientIPKey() RateLimiterKeyFunc {
	return func(c *gin.Context) (string, bool) {
		return ClientRateLimiterKey(c.FullPath(), c.ClientIP()), true
	}
}

// RateLimiterMiddleware implements Token Bucket algorithm using Redis + Lua script
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig, keyFor RateLimiterKeyFunc) gin.HandlerFunc {
	// Load Lua script into Redis (SHA hash will be cached)
	ctx := context.Background()
	scriptSHA, err := redisClient.ScriptLoad(ctx, luaScript).Result()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load Lua script for rate limiter")
	}

	return func(c *gin.Context) {
		key, identified := keyFor(c)
		if !identified {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized - user_id not found in context",
			})
			c.Abort()
			return
		}

		now := time.Now().Unix()

		result, err := redisClient.EvalSha(ctx, scriptSHA, []string{key},
			config.Capacity,
			config.RefillRate,
			now,
		).Result()

		if err != nil {
			logrus.WithError(err).Error("Failed to execute rate limiter Lua script")
			// Fail open: allow request if Redis fails
			c.Next()
			return
		}

		allowed, ok := scriptAllowed(result)
		if !ok {
			logrus.WithField("result", result).Error("Unexpected rate limiter script reply")
			// Fail open, same as a Redis error
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Maximum %d requests per second allowed", int(config.RefillRate)),
				"retry_after": fmt.Sprintf("%.1f seconds", 1.0/config.RefillRate),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// scriptAllowed interprets the limiter script reply (1 allowed, 0 denied).
// ok is false when the reply is not the integer the script returns.
func scriptAllowed(result interface{}) (allowed, ok bool) {
	n, ok := result.(int64)
	return n == 1, ok
}

// Build cache key for user rate limiting
func UserRateLimiterKey(userID int) string {
	return fmt.Sprintf("rate_limiter:user:%d", userID)
}

// Build cache key for per-route, per-IP rate limiting
func ClientRateLimiterKey(route, ip string) string {
	return fmt.Sprintf("rate_limiter:ip:%s:%s", route, ip)
}
