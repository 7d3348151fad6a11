package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"dispatch/internal/config"
	"dispatch/internal/metrics"
)

const rateLimitPrefix = "dispatch:ratelimit"

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
}

func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	store, err := sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{
		Prefix:   rateLimitPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create redis rate limit store")
	}
	return store, nil
}

// NewStore picks the store named by opts, falling back to memory when redis is
// unreachable.
func NewStore(opts config.RateLimitOptions, logger *logrus.Logger) limiter.Store {
	if opts.Storage == config.RateLimitStorageRedis {
		store, err := NewRedisStore(opts.RedisURL)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
	}
	return NewMemoryStore()
}

// RateLimit limits requests per authenticated user, or per client IP when no
// user is known. It must run after JWTAuthMiddleware to key by user.
func RateLimit(store limiter.Store, opts config.RateLimitOptions, logger *logrus.Logger) gin.HandlerFunc {
	if !opts.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	rate := limiter.Rate{Period: opts.Period, Limit: opts.Requests}
	return mgin.NewMiddleware(
		limiter.New(store, rate),
		mgin.WithKeyGetter(rateLimitKey),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			metrics.RecordRateLimited()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, slow down",
				"code":  "RATE_LIMITED",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.WithError(err).Error("rate limiter failed, letting request through")
			c.Next()
		}),
	)
}

func rateLimitKey(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return "user:" + id.String()
		}
	}
	return "ip:" + c.ClientIP()
}
