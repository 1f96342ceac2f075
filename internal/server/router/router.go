package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(auth *handlers.AuthHandler, inventory *handlers.InventoryHandler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	authGroup.POST("/signup", auth.SignUp)
	authGroup.POST("/signin", auth.SignIn)
	authGroup.POST("/signout", auth.RequireSession(), auth.SignOut)

	items := r.Group("/items", auth.RequireSession())
	items.GET("", inventory.List)
	items.POST("", inventory.Add)
	items.GET("/summary", inventory.Summary)
	items.GET("/lookup", inventory.Get)
	items.POST("/remove", inventory.Remove)
	items.POST("/:id/remove", inventory.RemoveByID)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
