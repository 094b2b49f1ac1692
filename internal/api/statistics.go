package api

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/microscan/microscan-go/internal/datastore"
)

const statisticsCacheKey = "statistics"

// statisticsResponse aggregates counts across all detection records.
type statisticsResponse struct {
	TotalDetections     int64             `json:"total_detections"`
	CompletedDetections int64             `json:"completed_detections"`
	FailedDetections    int64             `json:"failed_detections"`
	SuccessRate         float64           `json:"success_rate"`
	OrganismStatistics  map[string]int    `json:"organism_statistics"`
	LatestDetections    []latestDetection `json:"latest_detections"`
}

type latestDetection struct {
	ID            uint   `json:"id"`
	Filename      string `json:"filename"`
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	OrganismCount int    `json:"organism_count"`
}

// GetStatistics returns aggregate detection statistics. Responses are
// cached briefly; writes invalidate the cache.
func (c *Controller) GetStatistics(ctx echo.Context) error {
	if cached, found := c.statsCache.Get(statisticsCacheKey); found {
		if resp, ok := cached.(*statisticsResponse); ok {
			return ctx.JSON(http.StatusOK, resp)
		}
	}

	resp, err := c.computeStatistics()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get statistics", http.StatusInternalServerError)
	}

	c.statsCache.SetDefault(statisticsCacheKey, resp)
	return ctx.JSON(http.StatusOK, resp)
}

// computeStatistics builds the aggregate view from the store. Records
// with malformed stored organism JSON contribute zero organisms rather
// than failing the aggregation.
func (c *Controller) computeStatistics() (*statisticsResponse, error) {
	total, err := c.DS.CountAll()
	if err != nil {
		return nil, err
	}
	completed, err := c.DS.CountByStatus(datastore.StatusCompleted)
	if err != nil {
		return nil, err
	}
	failed, err := c.DS.CountByStatus(datastore.StatusFailed)
	if err != nil {
		return nil, err
	}

	successRate := 0.0
	if total > 0 {
		successRate = math.Round(float64(completed)/float64(total)*100*100) / 100
	}

	completedRecords, err := c.DS.CompletedDetections(0)
	if err != nil {
		return nil, err
	}

	frequency := make(map[string]int)
	for i := range completedRecords {
		for _, classID := range completedRecords[i].OrganismTypes() {
			frequency[classID]++
		}
	}

	latest := make([]latestDetection, 0, 5)
	for i := range completedRecords {
		if i >= 5 {
			break
		}
		d := &completedRecords[i]
		latest = append(latest, latestDetection{
			ID:            d.ID,
			Filename:      d.Filename,
			Status:        d.Status,
			Timestamp:     d.Timestamp.Format(time.RFC3339),
			OrganismCount: len(d.Organisms()),
		})
	}

	return &statisticsResponse{
		TotalDetections:     total,
		CompletedDetections: completed,
		FailedDetections:    failed,
		SuccessRate:         successRate,
		OrganismStatistics:  frequency,
		LatestDetections:    latest,
	}, nil
}

// invalidateStatistics drops the cached statistics response after a
// write.
func (c *Controller) invalidateStatistics() {
	c.statsCache.Delete(statisticsCacheKey)
}
