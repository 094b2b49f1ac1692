package processing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microscan/microscan-go/internal/conf"
	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/errors"
	"github.com/microscan/microscan-go/internal/sampler"
)

type fixedSampler struct {
	detections []sampler.Detection
	err        error
}

func (f *fixedSampler) Sample(width, height int) ([]sampler.Detection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detections, nil
}

type stubNotifier struct {
	enabled    bool
	recipients []string
	err        error
}

func (s *stubNotifier) Enabled() bool { return s.enabled }

func (s *stubNotifier) SendResults(recipient string, detection *datastore.Detection) error {
	s.recipients = append(s.recipients, recipient)
	return s.err
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	settings.Upload.Path = t.TempDir()
	settings.Upload.MaxSizeMB = 16
	settings.Upload.AllowedExtensions = []string{"png", "jpg", "jpeg"}
	return settings
}

func newTestProcessor(t *testing.T, s sampler.Sampler, notifier Notifier) (*Processor, datastore.Interface) {
	t.Helper()

	settings := testSettings(t)
	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() {
		require.NoError(t, ds.Close())
	})

	return New(settings, ds, s, notifier, nil), ds
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, color.RGBA{uint8(x % 256), 90, uint8(y % 256), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleDetections() []sampler.Detection {
	return []sampler.Detection{
		{ClassID: "e_coli", Name: "Escherichia coli", ScientificName: "Escherichia coli",
			Confidence: 0.88, BBox: [4]int{10, 10, 50, 50}, Risk: "High"},
		{ClassID: "bacillus_subtilis", Name: "Bacillus subtilis", ScientificName: "Bacillus subtilis",
			Confidence: 0.75, BBox: [4]int{60, 10, 100, 50}, Risk: "Low"},
	}
}

func TestProcessUploadRejectsDisallowedExtension(t *testing.T) {
	proc, ds := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	detection, err := proc.ProcessUpload(bytes.NewReader([]byte("payload")), "virus.exe", "", "")
	require.Error(t, err)
	assert.Nil(t, detection)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	count, err := ds.CountAll()
	require.NoError(t, err)
	assert.Zero(t, count, "no record is created for rejected uploads")

	entries, err := os.ReadDir(proc.Settings.Upload.Path)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is stored for rejected uploads")
}

func TestProcessUploadRejectsEmptyFile(t *testing.T) {
	proc, ds := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	detection, err := proc.ProcessUpload(bytes.NewReader(nil), "empty.png", "", "")
	require.Error(t, err)
	assert.Nil(t, detection)
	assert.Equal(t, errors.CategoryFileIO, errors.CategoryOf(err))

	count, err := ds.CountAll()
	require.NoError(t, err)
	assert.Zero(t, count, "no record is created for empty uploads")

	entries, err := os.ReadDir(proc.Settings.Upload.Path)
	require.NoError(t, err)
	assert.Empty(t, entries, "the zero-byte file is removed")
}

func TestProcessUploadCompletes(t *testing.T) {
	proc, ds := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	detection, err := proc.ProcessUpload(bytes.NewReader(pngBytes(t, 120, 120)), "pond water.png", "Alice", "")
	require.NoError(t, err)
	require.NotNil(t, detection)

	assert.Equal(t, datastore.StatusCompleted, detection.Status)
	assert.NotEqual(t, datastore.StatusProcessing, detection.Status)
	assert.Contains(t, detection.Filename, "pond_water.png", "filename is sanitized")

	stored, err := ds.Get("1")
	require.NoError(t, err)
	assert.Equal(t, datastore.StatusCompleted, stored.Status)
	assert.Equal(t, "Alice", stored.Name)

	organisms := stored.Organisms()
	require.Len(t, organisms, 2)
	assert.Equal(t, "e_coli", organisms[0].ClassID)

	rec, ok := stored.Recommendations()
	require.True(t, ok)
	assert.Equal(t, "high", rec.RiskLevel)

	assert.FileExists(t, stored.OriginalImagePath)
	assert.FileExists(t, stored.ProcessedImagePath)
	assert.NotEqual(t, stored.OriginalImagePath, stored.ProcessedImagePath)
}

func TestProcessUploadSamplerFailureLandsFailed(t *testing.T) {
	sampleErr := sampler.ErrInsufficientCatalog
	proc, ds := newTestProcessor(t, &fixedSampler{err: sampleErr}, nil)

	detection, err := proc.ProcessUpload(bytes.NewReader(pngBytes(t, 100, 100)), "sample.png", "", "")
	require.Error(t, err)
	require.NotNil(t, detection)
	assert.Equal(t, datastore.StatusFailed, detection.Status)

	stored, getErr := ds.Get("1")
	require.NoError(t, getErr)
	assert.Equal(t, datastore.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage, "failed records carry the error message")
}

func TestProcessUploadUndecodableImageLandsFailed(t *testing.T) {
	proc, ds := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	detection, err := proc.ProcessUpload(bytes.NewReader([]byte("not an image")), "fake.png", "", "")
	require.Error(t, err)
	require.NotNil(t, detection)
	assert.Equal(t, datastore.StatusFailed, detection.Status)

	stored, getErr := ds.Get("1")
	require.NoError(t, getErr)
	assert.Equal(t, datastore.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
}

func TestProcessUploadSendsEmailWhenRequested(t *testing.T) {
	notifier := &stubNotifier{enabled: true}
	proc, _ := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, notifier)

	_, err := proc.ProcessUpload(bytes.NewReader(pngBytes(t, 100, 100)), "sample.png", "", "user@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"user@example.com"}, notifier.recipients)
}

func TestProcessUploadSkipsEmailWithoutAddress(t *testing.T) {
	notifier := &stubNotifier{enabled: true}
	proc, _ := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, notifier)

	_, err := proc.ProcessUpload(bytes.NewReader(pngBytes(t, 100, 100)), "sample.png", "", "")
	require.NoError(t, err)

	assert.Empty(t, notifier.recipients)
}

func TestProcessUploadEmailFailureDoesNotChangeStatus(t *testing.T) {
	notifier := &stubNotifier{enabled: true, err: errors.Newf("smtp down").Build()}
	proc, ds := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, notifier)

	detection, err := proc.ProcessUpload(bytes.NewReader(pngBytes(t, 100, 100)), "sample.png", "", "user@example.com")
	require.NoError(t, err, "email delivery is best-effort")
	assert.Equal(t, datastore.StatusCompleted, detection.Status)

	stored, getErr := ds.Get("1")
	require.NoError(t, getErr)
	assert.Equal(t, datastore.StatusCompleted, stored.Status)
}

func TestDeleteDetectionRemovesFiles(t *testing.T) {
	proc, ds := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	detection, err := proc.ProcessUpload(bytes.NewReader(pngBytes(t, 100, 100)), "sample.png", "", "")
	require.NoError(t, err)

	require.NoError(t, proc.DeleteDetection("1"))

	assert.NoFileExists(t, detection.OriginalImagePath)
	assert.NoFileExists(t, detection.ProcessedImagePath)

	_, err = ds.Get("1")
	assert.True(t, datastore.IsNotFound(err))
}

func TestDeleteDetectionMissing(t *testing.T) {
	proc, _ := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	err := proc.DeleteDetection("123")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))
}

func TestDeleteDetectionNonNumericID(t *testing.T) {
	proc, _ := newTestProcessor(t, &fixedSampler{detections: sampleDetections()}, nil)

	err := proc.DeleteDetection("abc")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))
}
