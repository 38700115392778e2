package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/logger"
)

// RequestLog assigns a request id (reusing an incoming X-Request-ID) and
// logs one line per request.  5xx responses log at error level.
func RequestLog(log logger.ILogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []logger.Field{
				logger.String("request_id", rid),
				logger.String("method", c.Request().Method),
				logger.String("path", c.Request().URL.Path),
				logger.Int("status", status),
				logger.Duration("latency", time.Since(start)),
				logger.String("ip", c.RealIP()),
			}
			if uid, ok := UserID(c); ok {
				fields = append(fields, logger.Uint64("user_id", uid))
			}
			switch {
			case status >= 500:
				if err != nil {
					fields = append(fields, logger.Error(err))
				}
				log.Error("request", fields...)
			case status >= 400:
				log.Warning("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
