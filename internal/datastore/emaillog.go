package datastore

import (
	"fmt"
	"time"
)

// SaveEmailLog appends an email delivery attempt. Logs are never
// updated.
func (ds *DataStore) SaveEmailLog(entry *EmailLog) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}
	if err := ds.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("saving email log: %w", err)
	}
	return nil
}

// LatestEmailLog returns the most recent email log for a detection, or
// nil if the detection has never been emailed.
func (ds *DataStore) LatestEmailLog(detectionID string) (*EmailLog, error) {
	var entry EmailLog
	err := ds.DB.Where("detection_id = ?", detectionID).
		Order("sent_at DESC").
		First(&entry).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest email log for detection %s: %w", detectionID, err)
	}
	return &entry, nil
}

// RecentEmailLogs returns the most recent delivery attempts across all
// detections.
func (ds *DataStore) RecentEmailLogs(limit int) ([]EmailLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []EmailLog
	err := ds.DB.Order("sent_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("listing email logs: %w", err)
	}
	return logs, nil
}
