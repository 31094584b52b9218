package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/internal/modules/cache"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/service/http/handler/response"
	"golang.org/x/time/rate"
)

const limiterIdle = 15 * time.Minute

// RateLimiter limits every client IP to rps requests per second. Limiters of
// idle clients expire from the cache.
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	limiters := cache.NewManager[*rate.Limiter](limiterIdle, limiterIdle)
	var mu sync.Mutex
	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok, err := limiters.Lookup(key)
		if err != nil {
			logs.Logger.Err(err).Str("client_ip", key).Msg("rate limiter lookup failed")
		}
		// 新客户端
		if !ok {
			lim = rate.NewLimiter(rate.Limit(rps), burst)
		}
		if err := limiters.SetWithExpiration(key, lim, limiterIdle); err != nil {
			logs.Logger.Err(err).Str("client_ip", key).Msg("rate limiter store failed")
		}
		return lim
	}
	return func(c *gin.Context) {
		if !get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.TooMany)
			return
		}
		c.Next()
	}
}
