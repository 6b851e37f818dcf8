package middleware

import (
	"sync"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxTrackedIPs = 10000

// IPRateLimiter 按客户端IP的令牌桶
type IPRateLimiter struct {
	enabled  bool
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rpm      int
	burst    int
	logger   *logrus.Logger
}

// NewIPRateLimiter 创建IP限流器
func NewIPRateLimiter(cfg *config.LoginProtectionConfig, logger *logrus.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		enabled:  cfg.Enabled && cfg.RequestsPerMinute > 0,
		limiters: make(map[string]*rate.Limiter),
		rpm:      cfg.RequestsPerMinute,
		burst:    cfg.Burst,
		logger:   logger,
	}
}

// Allow 该IP是否还有令牌
func (r *IPRateLimiter) Allow(ip string) bool {
	if !r.enabled {
		return true
	}

	allowed := r.getLimiter(ip).Allow()
	if !allowed {
		r.logger.WithField("ip", ip).Warn("登录请求过于频繁")
	}
	return allowed
}

// Reset 清除该IP的计数
func (r *IPRateLimiter) Reset(ip string) {
	r.mu.Lock()
	delete(r.limiters, ip)
	r.mu.Unlock()
}

func (r *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[ip]; ok {
		return limiter
	}
	if len(r.limiters) >= maxTrackedIPs {
		r.logger.Warn("限流表超过上限，已清空")
		r.limiters = make(map[string]*rate.Limiter)
	}

	burst := r.burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.rpm)), burst)
	r.limiters[ip] = limiter
	return limiter
}

// LoginProtection 登录和改密接口的IP限流
func LoginProtection(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			utils.AbortWithError(c, errs.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
