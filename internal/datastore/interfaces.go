// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/microscan/microscan-go/internal/conf"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Interface abstracts the underlying database implementation and defines
// the operations available to the rest of the application.
type Interface interface {
	Open() error
	Close() error
	// detection records
	Save(detection *Detection) error
	Update(detection *Detection) error
	Get(id string) (Detection, error)
	Delete(id string) error
	Paginated(page, perPage int) ([]Detection, int64, error)
	CountAll() (int64, error)
	CountByStatus(status string) (int64, error)
	CompletedDetections(limit int) ([]Detection, error)
	// email logs
	SaveEmailLog(entry *EmailLog) error
	LatestEmailLog(detectionID string) (*EmailLog, error)
	RecentEmailLogs(limit int) ([]EmailLog, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// Save inserts a new detection record.
func (ds *DataStore) Save(detection *Detection) error {
	if detection.Timestamp.IsZero() {
		detection.Timestamp = time.Now()
	}
	if err := ds.DB.Create(detection).Error; err != nil {
		return fmt.Errorf("saving detection: %w", err)
	}
	return nil
}

// Update persists changes to an existing detection record.
func (ds *DataStore) Update(detection *Detection) error {
	if detection.ID == 0 {
		return fmt.Errorf("updating detection: record has no ID")
	}
	if err := ds.DB.Save(detection).Error; err != nil {
		return fmt.Errorf("updating detection %d: %w", detection.ID, err)
	}
	return nil
}

// Get retrieves a detection record by its ID.
func (ds *DataStore) Get(id string) (Detection, error) {
	detectionID, err := strconv.Atoi(id)
	if err != nil {
		// A malformed id can never match a record.
		return Detection{}, fmt.Errorf("invalid detection ID %q: %w", id, gorm.ErrRecordNotFound)
	}

	var detection Detection
	if err := ds.DB.First(&detection, detectionID).Error; err != nil {
		return Detection{}, fmt.Errorf("getting detection with ID %d: %w", detectionID, err)
	}
	return detection, nil
}

// Delete removes a detection record and its email logs in a single
// transaction.
func (ds *DataStore) Delete(id string) error {
	detectionID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid detection ID %q: %w", id, gorm.ErrRecordNotFound)
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("detection_id = ?", id).Delete(&EmailLog{}).Error; err != nil {
			return fmt.Errorf("deleting email logs for detection ID %d: %w", detectionID, err)
		}
		result := tx.Delete(&Detection{}, detectionID)
		if result.Error != nil {
			return fmt.Errorf("deleting detection with ID %d: %w", detectionID, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Paginated retrieves detection records ordered by timestamp descending
// together with the total record count.
func (ds *DataStore) Paginated(page, perPage int) ([]Detection, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := ds.DB.Model(&Detection{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting detections: %w", err)
	}

	var detections []Detection
	err := ds.DB.Order("timestamp DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&detections).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing detections: %w", err)
	}
	return detections, total, nil
}

// CountAll returns the total number of detection records.
func (ds *DataStore) CountAll() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Detection{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting detections: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of detection records with the given
// status.
func (ds *DataStore) CountByStatus(status string) (int64, error) {
	var count int64
	err := ds.DB.Model(&Detection{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting detections with status %s: %w", status, err)
	}
	return count, nil
}

// CompletedDetections retrieves completed records ordered newest first.
// A limit of 0 returns all completed records.
func (ds *DataStore) CompletedDetections(limit int) ([]Detection, error) {
	query := ds.DB.Where("status = ?", StatusCompleted).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var detections []Detection
	if err := query.Find(&detections).Error; err != nil {
		return nil, fmt.Errorf("listing completed detections: %w", err)
	}
	return detections, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Detection{}, &EmailLog{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
