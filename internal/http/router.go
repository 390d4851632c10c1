package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatsense/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	analysisH *AnalysisHandler,
	dashboardH *DashboardHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	analysis := r.Group("/analysis", JWTAuthMiddleware(jwtSvc))
	analysis.POST("/analyze", analysisH.Analyze)
	analysis.POST("/analyze-bulk", analysisH.AnalyzeBulk)
	analysis.POST("/import-chat", analysisH.ImportChat)
	analysis.GET("/history", analysisH.ListHistory)
	analysis.GET("/history/:id", analysisH.GetHistory)
	analysis.DELETE("/history/:id", analysisH.DeleteHistory)
	analysis.GET("/chat-history", analysisH.ListChatHistory)
	analysis.GET("/chat-history/:id", analysisH.GetChatHistory)

	dashboard := r.Group("/dashboard", JWTAuthMiddleware(jwtSvc))
	dashboard.GET("", dashboardH.GetDashboard)
	dashboard.GET("/mood-trends", dashboardH.GetMoodTrends)
	dashboard.GET("/similar-moods/:id", dashboardH.FindSimilarMoods)

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
