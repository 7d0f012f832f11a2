/**
 * 中间件:HTTP请求中间件
 * @author: sun977
 * @date: 2025.11.10
 * @description: 访问日志、异常恢复、CORS、APIKey认证中间件
 */
package inspect

import (
	"fmt"
	"net/http"
	"time"

	"neoinspect/internal/config"
	"neoinspect/internal/model"
	"neoinspect/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// requestIDKey 请求追踪ID的上下文键
const requestIDKey = "request_id"

// RequestLoggerMiddleware 访问日志中间件
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("%d", startTime.UnixNano())
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		logger.LogAccessRequest(c, startTime, requestID)
	}
}

// RecoveryMiddleware 异常恢复中间件
// handler panic时返回500，不中断服务进程
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("handler panic: %v", r)
				logger.LogError(err, "http", "recover", map[string]interface{}{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					model.NewErrorResponse(http.StatusInternalServerError, "internal server error", ""))
			}
		}()
		c.Next()
	}
}

// CORSMiddleware CORS中间件
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if cfg.AllowAllOrigins {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range cfg.AllowOrigins {
				if allowed == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		if len(cfg.AllowMethods) > 0 {
			c.Header("Access-Control-Allow-Methods", joinValues(cfg.AllowMethods))
		}
		if len(cfg.AllowHeaders) > 0 {
			c.Header("Access-Control-Allow-Headers", joinValues(cfg.AllowHeaders))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// joinValues 拼接响应头多值
func joinValues(values []string) string {
	result := ""
	for i, v := range values {
		if i > 0 {
			result += ", "
		}
		result += v
	}
	return result
}

// APIKeyMiddleware APIKey认证中间件
// 产线内网部署时可在配置中关闭
func APIKeyMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if !cfg.EnableAPIKey || skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := c.GetHeader(cfg.APIKeyHeader)
		if key == "" || key != cfg.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				model.NewErrorResponse(http.StatusUnauthorized, "invalid api key", ""))
			return
		}

		c.Next()
	}
}
