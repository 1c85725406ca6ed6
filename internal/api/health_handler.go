package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/universe-engine/internal/encoder"
)

// handleHealth reports engine status and live capabilities for service
// discovery.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "universe-engine",
		"tier":   s.CurrentTier(),
		"rows":   s.store.Len(),
		"capabilities": gin.H{
			"formats": []encoder.Format{
				encoder.FormatVertex28, encoder.FormatColumnar, encoder.FormatFlatbuffer,
			},
			"compressions": []encoder.Compression{
				encoder.CompressionNone, encoder.CompressionZstd,
			},
			"materializer": s.materializer != nil,
			"stream":       s.hub != nil,
		},
		"debug": s.debug,
	})
}
