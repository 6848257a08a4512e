package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"splitLines/vector"
)

// SplitRequest is the body of POST /split-lines
type SplitRequest struct {
	MaxSegmentLength  float64         `json:"max_segment_length"`
	Geographic        bool            `json:"geographic"`
	FeatureCollection json.RawMessage `json:"feature_collection" binding:"required"`
}

// SplitResponse carries the run summary and the output GeoJSON FeatureCollection
type SplitResponse struct {
	Summary           SplitSummary    `json:"summary"`
	FeatureCollection json.RawMessage `json:"feature_collection"`
}

func newRouter(cfg Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	err := router.SetTrustedProxies(nil)
	if err != nil {
		logger.Fatal("Set trusted proxies", zap.Error(err))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Handle request to split every line of a feature collection
	router.POST("/split-lines", func(c *gin.Context) {
		if cfg.MaxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxBodyBytes)
		}

		var request SplitRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
			return
		}

		runID := uuid.NewString()
		c.Header("X-Run-ID", runID)

		// The run stops between features when the client goes away
		out, summary, err := splitLines(c.Request.Context(), logger, runID, request.FeatureCollection, request.MaxSegmentLength, request.Geographic)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": errorKind(err), "run_id": runID})
			return
		}

		data, err := vector.MarshalGeoJSON(out)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode output: " + err.Error(), "run_id": runID})
			return
		}

		c.JSON(http.StatusOK, SplitResponse{Summary: summary, FeatureCollection: data})
	})

	return router
}

// statusFor maps a run error to an HTTP status code
func statusFor(err error) int {
	switch errorKind(err) {
	case "invalid_parameter", "invalid_input", "invalid_coordinate":
		return http.StatusBadRequest
	case "invalid_geometry_kind", "malformed_geometry":
		return http.StatusUnprocessableEntity
	case "cancelled":
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
