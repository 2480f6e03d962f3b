package httpserver

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	loginLimiterExpiry = 5 * time.Minute
	loginDeniedMessage = "too many login attempts, try again later"
)

// newLoginRateLimiter throttles teacher login attempts per client IP so a
// password cannot be brute forced through /teacher-login.
func newLoginRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: loginLimiterExpiry,
		},
	)
	retryAfter := strconv.Itoa(max(1, int(math.Ceil(1/ratePerSecond))))

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, clientIP string, _ error) error {
			slog.WarnContext(c.Request().Context(), "Login rate limit exceeded", "client_ip", clientIP)
			c.Response().Header().Set("Retry-After", retryAfter)
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": loginDeniedMessage,
			})
		},
	})
}
