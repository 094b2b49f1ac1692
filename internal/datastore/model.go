// model.go this code defines the data model for the application
package datastore

import (
	"encoding/json"
	"time"

	"github.com/microscan/microscan-go/internal/recommend"
	"github.com/microscan/microscan-go/internal/sampler"
)

// Detection statuses. Transitions are one-way: processing is the initial
// state, completed and failed are terminal.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Email log statuses. never_sent is never stored, it is synthesized in
// listings for records with no log rows.
const (
	EmailStatusSent      = "sent"
	EmailStatusFailed    = "failed"
	EmailStatusNeverSent = "never_sent"
)

// Detection represents a single analyzed upload.
type Detection struct {
	ID                        uint   `gorm:"primaryKey"`
	Filename                  string `gorm:"index:idx_detections_filename"`
	OriginalImagePath         string
	ProcessedImagePath        string
	Status                    string `gorm:"type:varchar(20);index:idx_detections_status"`
	DetectionResults          string `gorm:"type:text"` // serialized full detection result
	DetectedOrganisms         string `gorm:"type:text"` // serialized []sampler.Detection
	WaterUsageRecommendations string `gorm:"type:text"` // serialized recommend.Recommendations
	ErrorMessage              string `gorm:"type:text"`
	Name                      string
	Email                     string
	Timestamp                 time.Time `gorm:"index:idx_detections_timestamp"`
}

// EmailLog represents one results-email delivery attempt. Rows are
// append-only, one per attempt.
type EmailLog struct {
	ID            uint   `gorm:"primaryKey"`
	Recipient     string `gorm:"index:idx_email_logs_recipient"`
	DetectionID   string `gorm:"index:idx_email_logs_detection_id"` // loose string reference to Detection.ID
	SentAt        time.Time `gorm:"index:idx_email_logs_sent_at"`
	Status        string    `gorm:"type:varchar(20)"`
	ResultSummary string    `gorm:"type:text"`
}

// Organisms decodes the stored organism list. Malformed or legacy rows
// decode to nil rather than failing; both the bare list shape and the
// wrapped {"organisms": [...]} shape are accepted.
func (d *Detection) Organisms() []sampler.Detection {
	if d.DetectedOrganisms == "" {
		return nil
	}

	var list []sampler.Detection
	if err := json.Unmarshal([]byte(d.DetectedOrganisms), &list); err == nil {
		return list
	}

	var wrapped struct {
		Organisms []sampler.Detection `json:"organisms"`
	}
	if err := json.Unmarshal([]byte(d.DetectedOrganisms), &wrapped); err == nil {
		return wrapped.Organisms
	}
	return nil
}

// Recommendations decodes the stored recommendation set. The second
// return value is false for empty or malformed rows.
func (d *Detection) Recommendations() (recommend.Recommendations, bool) {
	if d.WaterUsageRecommendations == "" {
		return recommend.Recommendations{}, false
	}
	var rec recommend.Recommendations
	if err := json.Unmarshal([]byte(d.WaterUsageRecommendations), &rec); err != nil {
		return recommend.Recommendations{}, false
	}
	return rec, true
}

// OrganismTypes returns the class ids of the stored organisms, used by
// listing responses.
func (d *Detection) OrganismTypes() []string {
	organisms := d.Organisms()
	types := make([]string, 0, len(organisms))
	for i := range organisms {
		if organisms[i].ClassID != "" {
			types = append(types, organisms[i].ClassID)
		}
	}
	return types
}
