package api

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine exposing the snapshot, stream,
// materialize, and health endpoints. Public endpoints (snapshot,
// stream, health) are unauthenticated, and of these only /snapshot is
// rate-limited; /materialize and /materialize/progress are bearer-token
// gated and rate-limited.
func SetupRouter(s *Server) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	snapshotLimiter := NewRateLimiter(60, 10)
	materializeLimiter := NewRateLimiter(6, 2)

	pub := r.Group("/")
	{
		pub.GET("/health", s.handleHealth)
		pub.GET("/stream", s.handleStream)
		pub.GET("/snapshot", snapshotLimiter.Middleware(), s.handleSnapshot)
	}

	protected := r.Group("/")
	protected.Use(AuthMiddleware())
	protected.Use(materializeLimiter.Middleware())
	{
		protected.POST("/materialize", s.handlePostMaterialize)
		protected.GET("/materialize/progress", s.handleMaterializeProgress)
	}

	return r
}
