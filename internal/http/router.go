package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-widget/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del widget.
func NewRouter(
	logger *zap.Logger,
	tokens *service.ContextTokenService,
	widgetH *WidgetHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/widget/boot", widgetH.Boot)
	r.GET("/widget/stream", widgetH.Stream)

	widget := r.Group("/widget", ContextTokenMiddleware(tokens))
	widget.POST("/open", widgetH.Open)
	widget.POST("/start", widgetH.Start)
	widget.POST("/options", widgetH.SelectOption)
	widget.POST("/messages", widgetH.SubmitText)
	widget.POST("/rating", widgetH.SubmitRating)
	widget.POST("/reset", widgetH.Reset)
	widget.GET("/state", widgetH.State)
	widget.DELETE("", widgetH.Close)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
