package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/amicci/supplier-search/internal/infrastructure/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// RequestIDKey is the gin context key holding the request id
	RequestIDKey = "request_id"
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"

	msgTooManyRequests = "Muitas requisições. Tente novamente em instantes."
)

// RequestIDMiddleware reuses the caller's X-Request-ID or assigns a new one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CORSMiddleware handles CORS for browser clients
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowed, anyOrigin := matchOrigin(origin, allowedOrigins); allowed {
			if anyOrigin {
				// credentials are never granted to every site
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list. A trailing *
// matches any suffix, so "*" alone allows every origin.
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	allowed, _ := matchOrigin(origin, allowedOrigins)
	return allowed
}

// matchOrigin reports whether origin is allowed and whether only a bare "*"
// entry allowed it.
func matchOrigin(origin string, allowedOrigins []string) (allowed, anyOrigin bool) {
	if origin == "" {
		return false, false
	}
	for _, rule := range allowedOrigins {
		if rule == "*" {
			anyOrigin = true
			continue
		}
		if strings.HasSuffix(rule, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(rule, "*")) {
				return true, false
			}
		} else if origin == rule {
			return true, false
		}
	}
	return anyOrigin, anyOrigin
}

// LoggerMiddleware logs each request with method, path, status, latency and request_id
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// RecoveryMiddleware turns panics into the generic search failure response
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("panic recovered")
				c.Abort()
				c.String(http.StatusInternalServerError, msgSearchFailure)
			}
		}()
		c.Next()
	}
}

// RateLimitMiddleware rejects clients that exceed their token bucket
func RateLimitMiddleware(limiter *ratelimit.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			log.Warn().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("client_ip", c.ClientIP()).
				Msg("rate limit exceeded")
			c.Header("Retry-After", "60")
			c.Abort()
			c.String(http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		c.Next()
	}
}
