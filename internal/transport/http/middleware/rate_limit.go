package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/core/port"
)

const rateLimitProblemType = "https://admin-iam.oakmund.example.com/errors/rate-limit-exceeded"

// IdentifierFunc derives the throttling key for a request.
type IdentifierFunc func(c *gin.Context) (string, error)

// RateLimitRule describes a sliding-window limit applied to a route group.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window rate limits backed by a shared store.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter constructs a limiter on top of the given store.
func NewRateLimiter(store port.RateLimitStore, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the limiter's time source.
func (rl *RateLimiter) WithClock(clock func() time.Time) *RateLimiter {
	if clock != nil {
		rl.now = clock
	}
	return rl
}

// ClientIPIdentifier keys the limit on the request's client IP.
func ClientIPIdentifier(prefix string) IdentifierFunc {
	return func(c *gin.Context) (string, error) {
		ip := c.ClientIP()
		if ip == "" {
			return "", fmt.Errorf("client ip unavailable")
		}
		return fmt.Sprintf("%s:%s", prefix, ip), nil
	}
}

// ProblemDetails is an RFC 9457 error document.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

type ruleResult struct {
	rule       RateLimitRule
	remaining  int
	retryAfter time.Duration
	limited    bool
}

// RateLimit applies the given rules in order and rejects the request once any
// rule's window is exhausted. Store failures fail open.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.store == nil || len(rules) == 0 {
			c.Next()
			return
		}

		var headerResult *ruleResult

		for _, rule := range rules {
			result, err := rl.evaluateRule(c, rule)
			if err != nil {
				rl.logger.Warn("rate limit evaluation failed",
					zap.String("rule", rule.Name),
					zap.Error(err))
				continue
			}

			if result == nil {
				continue
			}

			if shouldReplaceHeaderResult(headerResult, result) {
				headerResult = result
			}

			if result.limited {
				applyHeaders(c, result)
				rl.respondRateLimited(c, result)
				return
			}
		}

		if headerResult != nil {
			applyHeaders(c, headerResult)
		}

		c.Next()
	}
}

func (rl *RateLimiter) evaluateRule(c *gin.Context, rule RateLimitRule) (*ruleResult, error) {
	if rule.Limit <= 0 || rule.Window <= 0 || rule.Identifier == nil {
		return nil, nil
	}

	key, err := rule.Identifier(c)
	if err != nil {
		return nil, fmt.Errorf("derive identifier: %w", err)
	}

	ctx := c.Request.Context()
	now := rl.now()

	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return nil, fmt.Errorf("trim window: %w", err)
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}

	if count >= rule.Limit {
		retryAfter := rule.Window
		if oldest, found, err := rl.store.OldestAttempt(ctx, key, rule.Window, now); err == nil && found {
			retryAfter = oldest.Add(rule.Window).Sub(now)
			if retryAfter < 0 {
				retryAfter = 0
			}
		}

		return &ruleResult{
			rule:       rule,
			remaining:  0,
			retryAfter: retryAfter,
			limited:    true,
		}, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	remaining := rule.Limit - count - 1
	if remaining < 0 {
		remaining = 0
	}

	return &ruleResult{
		rule:      rule,
		remaining: remaining,
	}, nil
}

func shouldReplaceHeaderResult(current, candidate *ruleResult) bool {
	if candidate == nil {
		return false
	}
	if current == nil {
		return true
	}
	if candidate.limited && !current.limited {
		return true
	}
	return candidate.remaining < current.remaining
}

func applyHeaders(c *gin.Context, result *ruleResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.rule.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.remaining))

	if result.limited {
		seconds := int(result.retryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
	}
}

func (rl *RateLimiter) respondRateLimited(c *gin.Context, result *ruleResult) {
	rl.logger.Warn("rate limit exceeded",
		zap.String("rule", result.rule.Name),
		zap.String("path", c.Request.URL.Path),
		zap.Duration("retry_after", result.retryAfter))

	problem := ProblemDetails{
		Type:     rateLimitProblemType,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   fmt.Sprintf("rate limit exceeded for %s, retry later", result.rule.Name),
		Instance: c.Request.URL.Path,
	}

	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, problem)
}
