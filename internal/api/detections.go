package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/errors"
)

// uploadResponse is the body returned for a processed upload.
type uploadResponse struct {
	Success     bool   `json:"success"`
	DetectionID uint   `json:"detection_id,omitempty"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Upload accepts a multipart image with optional name and email fields
// and runs the full analysis pipeline synchronously.
func (c *Controller) Upload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, uploadResponse{
			Success: false,
			Status:  datastore.StatusFailed,
			Error:   "No image file provided",
		})
	}
	if fileHeader.Filename == "" {
		return ctx.JSON(http.StatusBadRequest, uploadResponse{
			Success: false,
			Status:  datastore.StatusFailed,
			Error:   "No file selected",
		})
	}

	maxBytes := c.Settings.Upload.MaxSizeMB * 1024 * 1024
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return ctx.JSON(http.StatusBadRequest, uploadResponse{
			Success: false,
			Status:  datastore.StatusFailed,
			Error:   "File exceeds the maximum upload size",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusInternalServerError)
	}
	defer src.Close()

	name := ctx.FormValue("name")
	email := ctx.FormValue("email")

	detection, err := c.Processor.ProcessUpload(src, fileHeader.Filename, name, email)
	if err != nil {
		code := statusFor(err)
		if errors.CategoryOf(err) == errors.CategoryValidation {
			return ctx.JSON(code, uploadResponse{
				Success: false,
				Status:  datastore.StatusFailed,
				Error:   err.Error(),
			})
		}

		// Record exists in the failed terminal state; report its id so
		// the client can inspect the failure.
		resp := uploadResponse{
			Success: false,
			Status:  datastore.StatusFailed,
			Error:   err.Error(),
		}
		if detection != nil {
			resp.DetectionID = detection.ID
		}
		c.invalidateStatistics()
		return ctx.JSON(code, resp)
	}

	c.invalidateStatistics()

	return ctx.JSON(http.StatusOK, uploadResponse{
		Success:     true,
		DetectionID: detection.ID,
		Status:      detection.Status,
		Message:     "Image uploaded and processed successfully",
	})
}

// GetDetection returns the full detection record including parsed result
// payloads.
func (c *Controller) GetDetection(ctx echo.Context) error {
	id := ctx.Param("id")

	detection, err := c.DS.Get(id)
	if err != nil {
		if datastore.IsNotFound(err) {
			return c.HandleError(ctx, err, "Detection not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get detection", http.StatusInternalServerError)
	}

	result := map[string]any{
		"id":                   detection.ID,
		"filename":             detection.Filename,
		"timestamp":            detection.Timestamp.Format(time.RFC3339),
		"status":               detection.Status,
		"original_image_path":  detection.OriginalImagePath,
		"processed_image_path": detection.ProcessedImagePath,
	}
	if detection.ErrorMessage != "" {
		result["error_message"] = detection.ErrorMessage
	}

	if detection.DetectionResults != "" {
		result["detection_results"] = rawJSON(detection.DetectionResults)
	}
	if organisms := detection.Organisms(); organisms != nil {
		result["organisms"] = organisms
	}
	if rec, ok := detection.Recommendations(); ok {
		result["water_recommendations"] = rec
		result["recommendations"] = rec // alias for frontend
	}

	return ctx.JSON(http.StatusOK, result)
}

// DeleteDetection removes a record and its image files.
func (c *Controller) DeleteDetection(ctx echo.Context) error {
	id := ctx.Param("id")

	if err := c.Processor.DeleteDetection(id); err != nil {
		if errors.CategoryOf(err) == errors.CategoryNotFound {
			return ctx.JSON(http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "Detection not found",
			})
		}
		return c.HandleError(ctx, err, "Failed to delete detection", http.StatusInternalServerError)
	}

	c.invalidateStatistics()

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Detection deleted successfully",
	})
}

// listedDetection is one row of the paginated listing, annotated with
// the latest email delivery state.
type listedDetection struct {
	ID             uint     `json:"id"`
	Filename       string   `json:"filename"`
	Timestamp      string   `json:"timestamp"`
	Status         string   `json:"status"`
	OrganismCount  int      `json:"organism_count"`
	OrganismTypes  []string `json:"organism_types"`
	EmailStatus    string   `json:"email_status"`
	EmailSentAt    *string  `json:"email_sent_at"`
	EmailRecipient *string  `json:"email_recipient"`
}

// ListDetections returns records newest first with pagination.
func (c *Controller) ListDetections(ctx echo.Context) error {
	page := intQueryParam(ctx, "page", 1)
	perPage := intQueryParam(ctx, "per_page", 10)

	detections, total, err := c.DS.Paginated(page, perPage)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list detections", http.StatusInternalServerError)
	}

	results := make([]listedDetection, 0, len(detections))
	for i := range detections {
		d := &detections[i]
		organisms := d.Organisms()

		row := listedDetection{
			ID:            d.ID,
			Filename:      d.Filename,
			Timestamp:     d.Timestamp.Format(time.RFC3339),
			Status:        d.Status,
			OrganismCount: len(organisms),
			OrganismTypes: d.OrganismTypes(),
			EmailStatus:   datastore.EmailStatusNeverSent,
		}

		entry, err := c.DS.LatestEmailLog(strconv.FormatUint(uint64(d.ID), 10))
		if err != nil {
			return c.HandleError(ctx, err, "Failed to load email logs", http.StatusInternalServerError)
		}
		if entry != nil {
			row.EmailStatus = entry.Status
			sentAt := entry.SentAt.Format(time.RFC3339)
			row.EmailSentAt = &sentAt
			row.EmailRecipient = &entry.Recipient
		}

		results = append(results, row)
	}

	pages := int64(0)
	if perPage > 0 {
		pages = (total + int64(perPage) - 1) / int64(perPage)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"detections": results,
		"total":      total,
		"page":       page,
		"pages":      pages,
	})
}

// rawJSON re-emits an already-serialized column without a decode and
// re-encode round trip.
func rawJSON(s string) json.RawMessage {
	return json.RawMessage(s)
}

// intQueryParam parses a positive integer query parameter with a
// default.
func intQueryParam(ctx echo.Context, name string, def int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}
