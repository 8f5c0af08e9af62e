package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jansetu/backend/internal/cache"
	"github.com/jansetu/backend/internal/engine"
)

type DashboardController struct {
	projection *engine.Projection
	cache      *cache.Cache
}

func NewDashboardController(projection *engine.Projection, cache *cache.Cache) *DashboardController {
	return &DashboardController{projection: projection, cache: cache}
}

// Summary returns all three aggregate groupings. Responses are cached for a
// short TTL; the case collection remains the source of truth.
func (dc *DashboardController) Summary(c *gin.Context) {
	var cached engine.DashboardSummary
	if dc.cache.GetJSON(c.Request.Context(), "dashboard:summary", &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	summary, err := dc.projection.Summary()
	if err != nil {
		respondEngineError(c, err)
		return
	}
	dc.cache.SetJSON(c.Request.Context(), "dashboard:summary", summary)
	c.JSON(http.StatusOK, summary)
}

// Aggregate returns one grouping: ?groupBy=status|priority|sla.
func (dc *DashboardController) Aggregate(c *gin.Context) {
	groupBy := c.DefaultQuery("groupBy", "status")

	key := "dashboard:aggregate:" + groupBy
	var cached []engine.AggregateBucket
	if dc.cache.GetJSON(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, gin.H{"groupBy": groupBy, "buckets": cached})
		return
	}

	buckets, err := dc.projection.Aggregate(groupBy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc.cache.SetJSON(c.Request.Context(), key, buckets)
	c.JSON(http.StatusOK, gin.H{"groupBy": groupBy, "buckets": buckets})
}
