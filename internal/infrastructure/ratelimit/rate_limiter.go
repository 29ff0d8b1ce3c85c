package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter 出站SFTP连接的QPS限制器
// 宿主环境可能并发触发大量请求,这里保护远端服务器不被拨号风暴打垮
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter 创建限制器
// qps为0或负数时不限制
func NewLimiter(qps int) *Limiter {
	if qps <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	// 令牌桶,桶大小取QPS,允许短时突发
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(qps), qps)}
}

// Wait 阻塞直到获得令牌,ctx取消或超时则返回错误
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow 非阻塞检查当前请求是否放行
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetQPS 动态调整限制
func (l *Limiter) SetQPS(qps int) {
	if qps <= 0 {
		l.limiter.SetLimit(rate.Inf)
		l.limiter.SetBurst(1)
		return
	}
	l.limiter.SetLimit(rate.Limit(qps))
	l.limiter.SetBurst(qps)
}

// QPS 当前限制,0表示不限制
func (l *Limiter) QPS() int {
	if l.limiter.Limit() == rate.Inf {
		return 0
	}
	return int(l.limiter.Limit())
}
