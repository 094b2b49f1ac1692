package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/microscan/microscan-go/internal/datastore"
)

// emailLogEntry is the JSON form of one delivery attempt.
type emailLogEntry struct {
	ID            uint   `json:"id"`
	Recipient     string `json:"recipient"`
	DetectionID   string `json:"detection_id"`
	SentAt        string `json:"sent_at"`
	Status        string `json:"status"`
	ResultSummary string `json:"result_summary"`
}

// ListEmailLogs returns recent email delivery attempts, newest first.
func (c *Controller) ListEmailLogs(ctx echo.Context) error {
	limit := intQueryParam(ctx, "limit", 20)

	logs, err := c.DS.RecentEmailLogs(limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list email logs", http.StatusInternalServerError)
	}

	entries := make([]emailLogEntry, 0, len(logs))
	for i := range logs {
		entry := &logs[i]
		entries = append(entries, emailLogEntry{
			ID:            entry.ID,
			Recipient:     entry.Recipient,
			DetectionID:   entry.DetectionID,
			SentAt:        entry.SentAt.Format(time.RFC3339),
			Status:        entry.Status,
			ResultSummary: entry.ResultSummary,
		})
	}

	return ctx.JSON(http.StatusOK, entries)
}

// sendResultsRequest is the body of POST /api/send-results-email.
type sendResultsRequest struct {
	Email       string `json:"email"`
	DetectionID string `json:"detection_id"`
}

// SendResultsEmail delivers the results of an existing detection to the
// given address. The outcome is recorded in the email log either way.
func (c *Controller) SendResultsEmail(ctx echo.Context) error {
	var req sendResultsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" || req.DetectionID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Missing email or detection_id",
		})
	}

	detection, err := c.DS.Get(req.DetectionID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return ctx.JSON(http.StatusNotFound, map[string]any{
				"error": "Detection not found",
			})
		}
		return c.HandleError(ctx, err, "Failed to load detection", http.StatusInternalServerError)
	}

	if c.Notifier == nil || !c.Notifier.Enabled() {
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error": "Email delivery is not configured",
		})
	}

	if err := c.Notifier.SendResults(req.Email, &detection); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error": "Failed to send email",
		})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"message": "Detection results sent successfully",
	})
}
