package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	clientLimiterCapacity       = 1024
	errorMessageTooManyUploads  = "too many uploads, try again shortly"
	errorKindRateLimited        = "rate_limited"
	logMessageUploadRateLimited = "upload rate limited"
	logFieldClientIP            = "client_ip"
)

// clientRateLimiter hands out one token bucket per client address.
type clientRateLimiter struct {
	mutex    sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// newClientRateLimiter returns nil when uploadsPerSecond is not positive, disabling the limit.
func newClientRateLimiter(uploadsPerSecond float64, burst int) (*clientRateLimiter, error) {
	if uploadsPerSecond <= 0 {
		return nil, nil
	}
	if burst <= 0 {
		burst = 1
	}
	limiters, err := lru.New[string, *rate.Limiter](clientLimiterCapacity)
	if err != nil {
		return nil, err
	}
	return &clientRateLimiter{limiters: limiters, limit: rate.Limit(uploadsPerSecond), burst: burst}, nil
}

// Allow reports whether clientAddress may upload now.
func (limiter *clientRateLimiter) Allow(clientAddress string) bool {
	limiter.mutex.Lock()
	bucket, found := limiter.limiters.Get(clientAddress)
	if !found {
		bucket = rate.NewLimiter(limiter.limit, limiter.burst)
		limiter.limiters.Add(clientAddress, bucket)
	}
	limiter.mutex.Unlock()
	return bucket.Allow()
}

// middleware admits uploads within the client's budget and hands the rest to reject,
// which must write the response.
func (limiter *clientRateLimiter) middleware(logger *zap.Logger, reject gin.HandlerFunc) gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		if limiter == nil {
			ginContext.Next()
			return
		}
		clientAddress := ginContext.ClientIP()
		if !limiter.Allow(clientAddress) {
			logger.Warn(logMessageUploadRateLimited, zap.String(logFieldClientIP, clientAddress))
			reject(ginContext)
			ginContext.Abort()
			return
		}
		ginContext.Next()
	}
}

func rejectUploadJSON(ginContext *gin.Context) {
	ginContext.JSON(http.StatusTooManyRequests, errorResponse{
		Error: errorMessageTooManyUploads,
		Kind:  errorKindRateLimited,
	})
}
