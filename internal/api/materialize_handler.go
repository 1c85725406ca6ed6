package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/universe-engine/internal/materializer"
	"github.com/rawblock/universe-engine/pkg/models"
)

type materializeRow struct {
	Symbol    string   `json:"symbol" binding:"required"`
	Sector    string   `json:"sector" binding:"required"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Z         *float64 `json:"z"`
	HasPrice  bool     `json:"hasPrice"`
	Industry  uint8    `json:"industry"`
	RiskTier  uint8    `json:"riskTier"`
	VolTier   uint8    `json:"volTier"`
	Liquidity uint8    `json:"liquidity"`
}

type materializeRequest struct {
	TargetRows int              `json:"targetRows" binding:"required"`
	Rows       []materializeRow `json:"rows" binding:"required"`
}

func isCanonicalSector(s models.Sector) bool {
	for _, c := range models.CanonicalSectors {
		if c == s {
			return true
		}
	}
	return false
}

// handlePostMaterialize runs the materializer synchronously against
// the posted inventory, the Go analogue of a one-off admin/seed
// script. GET /materialize/progress lets a separate caller watch the
// run while it is in flight.
func (s *Server) handlePostMaterialize(c *gin.Context) {
	if s.materializer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":      "MATERIALIZER_UNAVAILABLE",
			"message":   "no database configured for materialization",
			"requestId": requestID(),
		})
		return
	}

	var req materializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":      "BAD_REQUEST",
			"message":   err.Error(),
			"requestId": requestID(),
		})
		return
	}

	inventory := make([]materializer.SourceRow, len(req.Rows))
	for i, r := range req.Rows {
		sector := models.Sector(r.Sector)
		if !isCanonicalSector(sector) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":      "UNKNOWN_SECTOR",
				"message":   "sector " + r.Sector + " is not a canonical sector",
				"requestId": requestID(),
			})
			return
		}
		inventory[i] = materializer.SourceRow{
			Symbol: r.Symbol, Sector: sector,
			X: r.X, Y: r.Y, Z: r.Z, HasPrice: r.HasPrice,
			Industry: r.Industry, RiskTier: r.RiskTier, VolTier: r.VolTier, Liquidity: r.Liquidity,
		}
	}

	err := s.materializer.Run(c.Request.Context(), inventory, req.TargetRows)
	if err != nil {
		code := "MATERIALIZE_FAILED"
		switch {
		case errors.Is(err, materializer.ErrInsufficientInventory):
			code = "INSUFFICIENT_INVENTORY"
		case errors.Is(err, materializer.ErrMortonIrreparable):
			code = "MORTON_IRREPARABLE"
		case errors.Is(err, materializer.ErrSwapAssert):
			code = "SWAP_ASSERT"
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code":      code,
			"message":   err.Error(),
			"requestId": requestID(),
		})
		return
	}

	if refreshErr := s.RefreshStore(context.Background()); refreshErr != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":      "materialized",
			"rows":        req.TargetRows,
			"refreshWarn": refreshErr.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "materialized",
		"rows":   req.TargetRows,
		"tier":   s.CurrentTier(),
	})
}

// handleMaterializeProgress implements GET /materialize/progress,
// exposing the materializer's mutex-guarded stage tracker.
func (s *Server) handleMaterializeProgress(c *gin.Context) {
	if s.materializer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":      "MATERIALIZER_UNAVAILABLE",
			"requestId": requestID(),
		})
		return
	}
	stage, rows, errMsg := s.materializer.Progress().Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"stage": stage,
		"rows":  rows,
		"error": errMsg,
	})
}
