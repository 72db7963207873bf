package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/config"
	"github.com/temcen/coursehybrid/pkg/models"
)

const rateLimitTimeout = 5 * time.Second

// slidingWindow drops entries older than the window, then records cost
// entries only if they fit under the limit. It returns {allowed, used}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local used = redis.call('ZCARD', key)
if used + cost > limit then
  return {0, used}
end
for i = 1, cost do
  redis.call('ZADD', key, now, ARGV[5] .. ':' .. i)
end
redis.call('PEXPIRE', key, window)
return {1, used + cost}
`)

// RateLimitService meters requests per client in the hot Redis. Requests
// carry a cost so a batch of recommendations or an evaluation run uses more
// of the window than a single lookup.
type RateLimitService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
}

func NewRateLimitService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *RateLimitService {
	return &RateLimitService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
	}
}

func rateLimitKey(clientID string) string {
	return fmt.Sprintf("rate_limit:client:%s", clientID)
}

// Consume charges cost units to clientID if they fit in the current window.
// A rejected request charges nothing. Redis failures fail open.
func (s *RateLimitService) Consume(ctx context.Context, clientID, userTier string, cost int) (bool, *models.RateLimitInfo, error) {
	if cost < 1 {
		cost = 1
	}
	limit := s.getLimitForTier(userTier)
	window := s.config.Auth.RateLimit.Window
	now := time.Now()
	info := &models.RateLimitInfo{Limit: limit, ResetTime: now.Add(window).Unix()}

	ctx, cancel := context.WithTimeout(ctx, rateLimitTimeout)
	defer cancel()

	res, err := slidingWindow.Run(ctx, s.redisClient,
		[]string{rateLimitKey(clientID)},
		now.UnixMilli(), window.Milliseconds(), limit, cost, now.UnixNano(),
	).Int64Slice()
	if err != nil || len(res) != 2 {
		s.logger.WithError(err).WithField("client_id", clientID).Error("Failed to run rate limit script")
		info.Remaining = max(limit-cost, 0)
		return true, info, nil
	}

	info.Remaining = max(limit-int(res[1]), 0)
	return res[0] == 1, info, nil
}

func (s *RateLimitService) getLimitForTier(userTier string) int {
	switch userTier {
	case "premium":
		return s.config.Auth.RateLimit.Premium
	case "enterprise":
		return s.config.Auth.RateLimit.Premium * 10 // 10x premium limit
	default:
		return s.config.Auth.RateLimit.Default
	}
}
