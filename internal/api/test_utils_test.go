package api

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/microscan/microscan-go/internal/conf"
	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/processing"
	"github.com/microscan/microscan-go/internal/sampler"
)

// MockDataStore implements datastore.Interface for handler tests.
type MockDataStore struct {
	mock.Mock
}

func (m *MockDataStore) Open() error  { return m.Called().Error(0) }
func (m *MockDataStore) Close() error { return m.Called().Error(0) }

func (m *MockDataStore) Save(detection *datastore.Detection) error {
	return m.Called(detection).Error(0)
}

func (m *MockDataStore) Update(detection *datastore.Detection) error {
	return m.Called(detection).Error(0)
}

func (m *MockDataStore) Get(id string) (datastore.Detection, error) {
	args := m.Called(id)
	return args.Get(0).(datastore.Detection), args.Error(1)
}

func (m *MockDataStore) Delete(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockDataStore) Paginated(page, perPage int) ([]datastore.Detection, int64, error) {
	args := m.Called(page, perPage)
	var detections []datastore.Detection
	if v := args.Get(0); v != nil {
		detections = v.([]datastore.Detection)
	}
	return detections, args.Get(1).(int64), args.Error(2)
}

func (m *MockDataStore) CountAll() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CountByStatus(status string) (int64, error) {
	args := m.Called(status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataStore) CompletedDetections(limit int) ([]datastore.Detection, error) {
	args := m.Called(limit)
	var detections []datastore.Detection
	if v := args.Get(0); v != nil {
		detections = v.([]datastore.Detection)
	}
	return detections, args.Error(1)
}

func (m *MockDataStore) SaveEmailLog(entry *datastore.EmailLog) error {
	return m.Called(entry).Error(0)
}

func (m *MockDataStore) LatestEmailLog(detectionID string) (*datastore.EmailLog, error) {
	args := m.Called(detectionID)
	var entry *datastore.EmailLog
	if v := args.Get(0); v != nil {
		entry = v.(*datastore.EmailLog)
	}
	return entry, args.Error(1)
}

func (m *MockDataStore) RecentEmailLogs(limit int) ([]datastore.EmailLog, error) {
	args := m.Called(limit)
	var logs []datastore.EmailLog
	if v := args.Get(0); v != nil {
		logs = v.([]datastore.EmailLog)
	}
	return logs, args.Error(1)
}

// mockNotifier stubs email delivery for handler tests.
type mockNotifier struct {
	enabled    bool
	err        error
	recipients []string
}

func (m *mockNotifier) Enabled() bool { return m.enabled }

func (m *mockNotifier) SendResults(recipient string, detection *datastore.Detection) error {
	m.recipients = append(m.recipients, recipient)
	return m.err
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Upload.Path = t.TempDir()
	settings.Upload.MaxSizeMB = 16
	settings.Upload.AllowedExtensions = []string{"png", "jpg", "jpeg"}
	return settings
}

// newTestController builds a Controller backed by the mock store.
func newTestController(t *testing.T, ds datastore.Interface, notifier processing.Notifier) *Controller {
	t.Helper()

	settings := testSettings(t)
	proc := processing.New(settings, ds, sampler.New(), notifier, nil)

	controller, err := New(settings, ds, proc, notifier, nil)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)
	return controller
}
