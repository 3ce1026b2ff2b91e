package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the endpoints. Client addresses come from the TCP peer
// unless it is one of trustedProxies.
func NewRouter(h *Handler, allowedOrigin string, trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	r.Use(recovery(h.logger), accessLog(h.logger))

	r.GET("/health", h.Health)
	r.OPTIONS("/predict", cors(allowedOrigin))
	r.POST("/predict", cors(allowedOrigin), h.Predict)

	return r, nil
}

func cors(allowOrigin string) gin.HandlerFunc {
	origin := allowOrigin
	if origin == "" {
		origin = "*"
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			c.Header("Vary", "Origin")
		}

		// Preflight
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, x-api-key")
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("client", c.ClientIP()),
			zap.Duration("latency", time.Since(start)))
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic while serving request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	})
}
