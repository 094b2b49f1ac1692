// Package processing orchestrates the upload pipeline: file intake,
// staining, organism sampling, recommendation generation and record
// persistence.
package processing

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/microscan/microscan-go/internal/conf"
	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/errors"
	"github.com/microscan/microscan-go/internal/logging"
	"github.com/microscan/microscan-go/internal/observability"
	"github.com/microscan/microscan-go/internal/recommend"
	"github.com/microscan/microscan-go/internal/sampler"
	"github.com/microscan/microscan-go/internal/staining"
)

// Notifier abstracts the results-email sender so the pipeline can run
// without a mail configuration and tests can stub delivery.
type Notifier interface {
	Enabled() bool
	SendResults(recipient string, detection *datastore.Detection) error
}

// Processor runs the analysis pipeline for uploaded images.
type Processor struct {
	Settings *conf.Settings
	DS       datastore.Interface
	Sampler  sampler.Sampler
	Stainer  *staining.Processor
	Notifier Notifier
	Metrics  *observability.Metrics

	log *slog.Logger
}

// New creates a Processor. Notifier and Metrics may be nil.
func New(settings *conf.Settings, ds datastore.Interface, s sampler.Sampler, notifier Notifier, metrics *observability.Metrics) *Processor {
	return &Processor{
		Settings: settings,
		DS:       ds,
		Sampler:  s,
		Stainer:  staining.New(),
		Notifier: notifier,
		Metrics:  metrics,
		log:      logging.ForService("processing"),
	}
}

// detectionPayload is the serialized form of a full detection result.
type detectionPayload struct {
	Organisms []sampler.Detection `json:"organisms"`
	Count     int                 `json:"count"`
	Image     imageInfo           `json:"image"`
}

type imageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessUpload stores the uploaded image and runs the full analysis
// pipeline. The record is created with status processing before any
// analysis begins; every outcome after that point lands the record in a
// terminal status, completed or failed, so callers never observe a
// detection stuck in processing.
func (p *Processor) ProcessUpload(src io.Reader, originalName, name, email string) (*datastore.Detection, error) {
	if !p.Settings.AllowedExtension(originalName) {
		return nil, errors.Newf("file type not allowed: %s", filepath.Ext(originalName)).
			Component("processing").
			Category(errors.CategoryValidation).
			Build()
	}

	storedName, storedPath, err := p.saveUpload(src, originalName)
	if err != nil {
		return nil, err
	}

	detection := &datastore.Detection{
		Filename:          storedName,
		OriginalImagePath: storedPath,
		Status:            datastore.StatusProcessing,
		Name:              name,
		Email:             email,
		Timestamp:         time.Now(),
	}
	if err := p.DS.Save(detection); err != nil {
		os.Remove(storedPath)
		return nil, errors.New(err).
			Component("processing").
			Category(errors.CategoryDatabase).
			Build()
	}

	start := time.Now()
	if err := p.analyze(detection); err != nil {
		p.fail(detection, err)
		p.countUpload(datastore.StatusFailed)
		return detection, err
	}

	detection.Status = datastore.StatusCompleted
	if err := p.DS.Update(detection); err != nil {
		p.fail(detection, err)
		p.countUpload(datastore.StatusFailed)
		return detection, errors.New(err).
			Component("processing").
			Category(errors.CategoryDatabase).
			Build()
	}

	if p.Metrics != nil {
		p.Metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}
	p.countUpload(datastore.StatusCompleted)

	p.log.Info("upload processed",
		"detection_id", detection.ID,
		"filename", storedName,
		"duration_ms", time.Since(start).Milliseconds())

	p.notifyIfRequested(detection)

	return detection, nil
}

// analyze runs staining, sampling and recommendation generation,
// mutating the detection record in place. It does not persist.
func (p *Processor) analyze(detection *datastore.Detection) error {
	uploadDir := p.Settings.Upload.Path

	processedPath, err := p.Stainer.Apply(detection.OriginalImagePath, uploadDir)
	if err != nil {
		// Staining is cosmetic; fall back to the original image so a
		// decode-capable but transform-hostile file still gets analyzed.
		p.log.Warn("staining failed, using original image",
			"detection_id", detection.ID,
			"error", err)
		processedPath = detection.OriginalImagePath
	}
	detection.ProcessedImagePath = processedPath

	width, height, err := staining.Dimensions(detection.ProcessedImagePath)
	if err != nil {
		return err
	}

	organisms, err := p.Sampler.Sample(width, height)
	if err != nil {
		return err
	}

	rec := p.recommendations(organisms)

	payload := detectionPayload{
		Organisms: organisms,
		Count:     len(organisms),
		Image:     imageInfo{Width: width, Height: height},
	}
	resultsJSON, err := json.Marshal(payload)
	if err != nil {
		return errors.New(err).Component("processing").Category(errors.CategoryGeneric).Build()
	}
	organismsJSON, err := json.Marshal(organisms)
	if err != nil {
		return errors.New(err).Component("processing").Category(errors.CategoryGeneric).Build()
	}
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return errors.New(err).Component("processing").Category(errors.CategoryGeneric).Build()
	}

	detection.DetectionResults = string(resultsJSON)
	detection.DetectedOrganisms = string(organismsJSON)
	detection.WaterUsageRecommendations = string(recJSON)
	return nil
}

// recommendations never aborts the pipeline: an unexpected panic in
// recommendation generation degrades to the unknown-risk fallback.
func (p *Processor) recommendations(organisms []sampler.Detection) (rec recommend.Recommendations) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("recommendation generation failed, using fallback", "panic", r)
			rec = recommend.Degraded()
		}
	}()
	return recommend.ForDetections(organisms)
}

// fail commits the record to the failed terminal status. Persistence
// errors here are logged but not returned; the original pipeline error
// is what the caller needs.
func (p *Processor) fail(detection *datastore.Detection, cause error) {
	detection.Status = datastore.StatusFailed
	detection.ErrorMessage = cause.Error()
	if err := p.DS.Update(detection); err != nil {
		p.log.Error("failed to mark detection as failed",
			"detection_id", detection.ID,
			"error", err)
	}
}

// notifyIfRequested sends the results email when the uploader supplied
// an address and delivery is configured. Best effort, outcome is
// recorded in the email log.
func (p *Processor) notifyIfRequested(detection *datastore.Detection) {
	if detection.Email == "" || p.Notifier == nil || !p.Notifier.Enabled() {
		return
	}
	err := p.Notifier.SendResults(detection.Email, detection)
	p.countEmail(err)
}

// DeleteDetection removes a detection record together with its image
// files. File removal is best effort; a missing file does not block the
// record delete.
func (p *Processor) DeleteDetection(id string) error {
	detection, err := p.DS.Get(id)
	if err != nil {
		if datastore.IsNotFound(err) {
			return errors.Newf("detection %s not found", id).
				Component("processing").
				Category(errors.CategoryNotFound).
				Build()
		}
		return errors.New(err).Component("processing").Category(errors.CategoryDatabase).Build()
	}

	for _, path := range []string{detection.OriginalImagePath, detection.ProcessedImagePath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.log.Warn("failed to remove image file", "path", path, "error", err)
		}
	}

	if err := p.DS.Delete(id); err != nil {
		if datastore.IsNotFound(err) {
			return errors.Newf("detection %s not found", id).
				Component("processing").
				Category(errors.CategoryNotFound).
				Build()
		}
		return errors.New(err).Component("processing").Category(errors.CategoryDatabase).Build()
	}
	return nil
}

// saveUpload writes the uploaded bytes under the upload directory with a
// random prefix so concurrent uploads of the same filename never collide.
func (p *Processor) saveUpload(src io.Reader, originalName string) (storedName, storedPath string, err error) {
	uploadDir := p.Settings.Upload.Path
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", "", errors.New(err).Component("processing").Category(errors.CategoryFileIO).Build()
	}

	storedName = fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeFilename(originalName))
	storedPath = filepath.Join(uploadDir, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		return "", "", errors.New(err).Component("processing").Category(errors.CategoryFileIO).Build()
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(storedPath)
		return "", "", errors.New(err).Component("processing").Category(errors.CategoryFileIO).Build()
	}
	if written == 0 {
		os.Remove(storedPath)
		return "", "", errors.Newf("uploaded file is empty").
			Component("processing").
			Category(errors.CategoryFileIO).
			Build()
	}
	return storedName, storedPath, nil
}

// sanitizeFilename strips path components and characters unsafe for the
// filesystem from a client-supplied filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}

func (p *Processor) countUpload(status string) {
	if p.Metrics != nil {
		p.Metrics.UploadsTotal.WithLabelValues(status).Inc()
	}
}

func (p *Processor) countEmail(err error) {
	if p.Metrics == nil {
		return
	}
	if err != nil {
		p.Metrics.EmailAttempts.WithLabelValues("failed").Inc()
	} else {
		p.Metrics.EmailAttempts.WithLabelValues("sent").Inc()
	}
}
