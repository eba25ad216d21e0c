package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nordicdesk/helpdesk/internal/config"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

// RateLimiter throttles the auth routes with a fixed Redis window per client
// address. When Redis is unreachable requests pass; throttling is protection,
// not a correctness requirement.
func RateLimiter(cfg config.RateLimitConfig, client *redis.Client, logger *zap.Logger) fiber.Handler {
	window := cfg.Window()
	return func(c *fiber.Ctx) error {
		if !cfg.Enabled || client == nil {
			return c.Next()
		}

		key := fmt.Sprintf("helpdesk:ratelimit:%s", c.IP())
		count, err := client.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Debug("rate limit check failed", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(c.UserContext(), key, window).Err(); err != nil {
				logger.Debug("rate limit expire failed", zap.Error(err))
			}
		}
		if count > int64(cfg.MaxRequests) {
			return apperrors.NewDomainError("RATE_LIMITED", "too many requests, please try again later", fiber.StatusTooManyRequests)
		}
		return c.Next()
	}
}
