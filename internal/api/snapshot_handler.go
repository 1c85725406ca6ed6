package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/internal/encoder"
)

// requestID returns a short hex id for correlating a failure response
// with server logs; every §6.1 failure response carries one.
func requestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unavailable"
	}
	return hex.EncodeToString(b)
}

// handleSnapshot implements GET /snapshot?format=&compression=&limit=.
func (s *Server) handleSnapshot(c *gin.Context) {
	format := encoder.Format(c.DefaultQuery("format", string(encoder.FormatVertex28)))
	compression := encoder.Compression(c.DefaultQuery("compression", string(encoder.CompressionNone)))

	snap := s.snapshotFromStore()
	if len(snap.Assets) == 0 && s.debug && s.builder != nil {
		// The canonical store is empty (nothing materialized yet). In
		// DEBUG mode, serve a live fallback tier instead of failing,
		// so the synthetic Ambassador/Sentinel universe is reachable
		// before the first materialization lands.
		snap = s.builder.Build(c.Request.Context())
	}
	n := len(snap.Assets)

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":      "BAD_LIMIT",
				"message":   "limit must be a non-negative integer",
				"requestId": requestID(),
			})
			return
		}
		if limit < n {
			n = limit
			snap.Assets = snap.Assets[:n]
			snap.VertexBytes = snap.VertexBytes[:n*codec.VertexStride]
		}
	}

	if n == 0 {
		if !s.debug {
			c.Status(http.StatusNoContent)
			c.Header("X-Asset-Count", "0")
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":        "NO_ROWS",
			"message":     "canonical store holds zero rows",
			"reason":      "materialize has not run, or every tier returned an empty snapshot",
			"remediation": "POST /materialize, or disable DEBUG once seeded",
			"requestId":   requestID(),
		})
		return
	}

	resp, err := encoder.Encode(snap, format, compression)
	if err != nil {
		switch {
		case errors.Is(err, encoder.ErrCapabilityMissing):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":        "UNSUPPORTED_CAPABILITY",
				"message":     err.Error(),
				"remediation": "request format=vertex28|columnar|flatbuffer and compression=none|zstd",
				"requestId":   requestID(),
			})
		case errors.Is(err, encoder.ErrContractViolation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":        "CONTRACT",
				"message":     err.Error(),
				"remediation": "retry; if this persists the canonical store is corrupted and needs re-materialization",
				"requestId":   requestID(),
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":        "ENCODE_FAILED",
				"message":     err.Error(),
				"remediation": "retry later",
				"requestId":   requestID(),
			})
		}
		return
	}

	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(http.StatusOK, "application/octet-stream", resp.Body)
}

// handleStream implements GET /stream, upgrading to the delta protocol
// websocket.
func (s *Server) handleStream(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":      "STREAM_UNAVAILABLE",
			"message":   "delta hub not configured",
			"requestId": requestID(),
		})
		return
	}
	s.hub.Subscribe(c)
}
