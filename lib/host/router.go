// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/fnhost/lib/hostapi"
)

// newEngine builds the host's HTTP routes. The function surface is
// mounted under hostapi.FunctionsPrefix; everything else is admin.
func (h *Host) newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(h.logger))
	engine.Use(h.metrics.middleware())
	if policy, ok := corsPolicy(h.config.CORSOrigins, h.logger); ok {
		engine.Use(cors.New(policy))
	}
	if err := engine.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		h.logger.Warn("setting trusted proxies", "error", err)
	}

	engine.GET(hostapi.StatusPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, h.Status())
	})
	engine.GET(hostapi.PingPath, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	engine.GET(hostapi.MetricsPath, gin.WrapH(promhttp.HandlerFor(h.metrics.registry, promhttp.HandlerOpts{})))

	functions := h.config.Functions
	if functions == nil {
		functions = http.HandlerFunc(noFunctions)
	}
	engine.Any(hostapi.FunctionsPrefix+"/*path", gin.WrapH(functions))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

func noFunctions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"no functions loaded"}` + "\n"))
}

// corsPolicy turns an origin list into a cors.Config. "*" anywhere in
// the list allows every origin. Entries the cors package would reject
// are dropped with a warning rather than failing the host. An empty
// result disables the middleware.
func corsPolicy(origins []string, logger *slog.Logger) (cors.Config, bool) {
	policy := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Requested-With", "X-Functions-Key",
		},
		MaxAge: 12 * time.Hour,
	}

	var allowed []string
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
		case origin == "*":
			policy.AllowAllOrigins = true
			return policy, true
		case (strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")) &&
			!strings.Contains(origin, "*"):
			allowed = append(allowed, strings.TrimSuffix(origin, "/"))
		default:
			logger.Warn("ignoring invalid CORS origin", "origin", origin)
		}
	}
	if len(allowed) == 0 {
		return cors.Config{}, false
	}
	policy.AllowOrigins = allowed
	return policy, true
}

// requestLogger logs one line per request at a level chosen by status.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		level := slog.LevelDebug
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		)
	}
}
