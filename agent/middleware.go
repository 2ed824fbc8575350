package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/imkonsowa/food-recs/metrics"
	"golang.org/x/time/rate"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID reuses the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		ctx.Set(requestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		slog.Info("request",
			"request_id", ctx.GetString(requestIDKey),
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", ctx.ClientIP(),
		)
	}
}

func observe() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(ctx.Request.Method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(ctx.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// rateLimit applies one token bucket to the whole server. A non-positive
// limit disables it.
func rateLimit(limit float64, burst int) gin.HandlerFunc {
	if limit <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(limit), burst)

	return func(ctx *gin.Context) {
		if !limiter.Allow() {
			metrics.RateLimitRejects.Inc()
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		ctx.Next()
	}
}
