package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/processing"
	"github.com/microscan/microscan-go/internal/sampler"
)

func perform(controller *Controller, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	controller.Echo.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for y := range 120 {
		for x := range 120 {
			img.SetRGBA(x, y, color.RGBA{uint8(2 * x), 80, uint8(2 * y), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func notFoundErr(id string) error {
	return fmt.Errorf("getting detection with ID %s: %w", id, gorm.ErrRecordNotFound)
}

func TestHealthCheck(t *testing.T) {
	controller := newTestController(t, new(MockDataStore), nil)

	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
}

func TestUploadWithoutFile(t *testing.T) {
	ds := new(MockDataStore)
	controller := newTestController(t, ds, nil)

	buf, contentType := multipartUpload(t, "", nil, map[string]string{"name": "Alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set(echoContentType, contentType)

	rec := perform(controller, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := jsonBody(t, rec)
	assert.Equal(t, false, body["success"])
	ds.AssertNotCalled(t, "Save", mock.Anything)
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	ds := new(MockDataStore)
	controller := newTestController(t, ds, nil)

	buf, contentType := multipartUpload(t, "virus.exe", []byte("payload"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set(echoContentType, contentType)

	rec := perform(controller, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := jsonBody(t, rec)
	assert.Equal(t, false, body["success"])
	ds.AssertNotCalled(t, "Save", mock.Anything)
}

func TestUploadCompletes(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Save", mock.AnythingOfType("*datastore.Detection")).Run(func(args mock.Arguments) {
		args.Get(0).(*datastore.Detection).ID = 7
	}).Return(nil)
	ds.On("Update", mock.AnythingOfType("*datastore.Detection")).Return(nil)

	controller := newTestController(t, ds, nil)

	buf, contentType := multipartUpload(t, "water.png", testPNG(t), map[string]string{"name": "Alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set(echoContentType, contentType)

	rec := perform(controller, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 7, body["detection_id"])
	assert.Equal(t, datastore.StatusCompleted, body["status"])
	ds.AssertExpectations(t)
}

func TestGetDetection(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Get", "3").Return(datastore.Detection{
		ID:                        3,
		Filename:                  "sample.png",
		Status:                    datastore.StatusCompleted,
		Timestamp:                 time.Now(),
		DetectedOrganisms:         `[{"class":"e_coli"}]`,
		WaterUsageRecommendations: `{"schema_version":1,"risk_level":"high"}`,
		DetectionResults:          `{"organisms":[{"class":"e_coli"}],"count":1}`,
	}, nil)

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/detection/3", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	assert.EqualValues(t, 3, body["id"])
	assert.Equal(t, datastore.StatusCompleted, body["status"])

	organisms, ok := body["organisms"].([]any)
	require.True(t, ok)
	assert.Len(t, organisms, 1)

	assert.Contains(t, body, "water_recommendations")
	assert.Contains(t, body, "recommendations", "alias for the frontend")
	assert.Equal(t, body["water_recommendations"], body["recommendations"])
}

func TestGetDetectionNotFound(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Get", "42").Return(datastore.Detection{}, notFoundErr("42"))

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/detection/42", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetectionEndpointsNonNumericID(t *testing.T) {
	settings := testSettings(t)
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() {
		require.NoError(t, ds.Close())
	})

	proc := processing.New(settings, ds, sampler.New(), nil, nil)
	controller, err := New(settings, ds, proc, nil, nil)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/detection/abc", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(controller, httptest.NewRequest(http.MethodDelete, "/api/detection/abc", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDetectionNotFound(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Get", "42").Return(datastore.Detection{}, notFoundErr("42"))

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodDelete, "/api/detection/42", http.NoBody))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := jsonBody(t, rec)
	assert.Equal(t, false, body["success"])
	ds.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestListDetectionsAnnotatesEmailState(t *testing.T) {
	sentAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ds := new(MockDataStore)
	ds.On("Paginated", 1, 10).Return([]datastore.Detection{
		{ID: 2, Filename: "b.png", Status: datastore.StatusCompleted, Timestamp: time.Now(),
			DetectedOrganisms: `[{"class":"e_coli"},{"class":"vibrio_cholerae"}]`},
		{ID: 1, Filename: "a.png", Status: datastore.StatusFailed, Timestamp: time.Now().Add(-time.Hour)},
	}, int64(2), nil)
	ds.On("LatestEmailLog", "2").Return(&datastore.EmailLog{
		Recipient: "user@example.com", DetectionID: "2",
		SentAt: sentAt, Status: datastore.EmailStatusSent,
	}, nil)
	ds.On("LatestEmailLog", "1").Return(nil, nil)

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/detections", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["pages"])

	detections, ok := body["detections"].([]any)
	require.True(t, ok)
	require.Len(t, detections, 2)

	first := detections[0].(map[string]any)
	assert.EqualValues(t, 2, first["organism_count"])
	assert.Equal(t, datastore.EmailStatusSent, first["email_status"])
	assert.Equal(t, "user@example.com", first["email_recipient"])

	second := detections[1].(map[string]any)
	assert.EqualValues(t, 0, second["organism_count"])
	assert.Equal(t, datastore.EmailStatusNeverSent, second["email_status"])
	assert.Nil(t, second["email_recipient"])
	assert.Nil(t, second["email_sent_at"])
}

func TestStatisticsEmptyStore(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("CountAll").Return(int64(0), nil)
	ds.On("CountByStatus", datastore.StatusCompleted).Return(int64(0), nil)
	ds.On("CountByStatus", datastore.StatusFailed).Return(int64(0), nil)
	ds.On("CompletedDetections", 0).Return(nil, nil)

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/statistics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	assert.EqualValues(t, 0, body["total_detections"])
	assert.EqualValues(t, 0.0, body["success_rate"])
}

func TestStatisticsAggregation(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("CountAll").Return(int64(4), nil)
	ds.On("CountByStatus", datastore.StatusCompleted).Return(int64(3), nil)
	ds.On("CountByStatus", datastore.StatusFailed).Return(int64(1), nil)
	ds.On("CompletedDetections", 0).Return([]datastore.Detection{
		{ID: 3, Filename: "c.png", Status: datastore.StatusCompleted, Timestamp: time.Now(),
			DetectedOrganisms: `[{"class":"e_coli"},{"class":"bacillus_subtilis"}]`},
		{ID: 2, Filename: "b.png", Status: datastore.StatusCompleted, Timestamp: time.Now(),
			DetectedOrganisms: `{malformed json`},
		{ID: 1, Filename: "a.png", Status: datastore.StatusCompleted, Timestamp: time.Now(),
			DetectedOrganisms: `[{"class":"e_coli"}]`},
	}, nil)

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/statistics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	assert.EqualValues(t, 4, body["total_detections"])
	assert.EqualValues(t, 3, body["completed_detections"])
	assert.EqualValues(t, 1, body["failed_detections"])
	assert.EqualValues(t, 75, body["success_rate"])

	frequency, ok := body["organism_statistics"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, frequency["e_coli"])
	assert.EqualValues(t, 1, frequency["bacillus_subtilis"])
	assert.NotContains(t, frequency, "malformed", "malformed rows are skipped")

	latest, ok := body["latest_detections"].([]any)
	require.True(t, ok)
	assert.Len(t, latest, 3)
}

func TestStatisticsCached(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("CountAll").Return(int64(0), nil).Once()
	ds.On("CountByStatus", datastore.StatusCompleted).Return(int64(0), nil).Once()
	ds.On("CountByStatus", datastore.StatusFailed).Return(int64(0), nil).Once()
	ds.On("CompletedDetections", 0).Return(nil, nil).Once()

	controller := newTestController(t, ds, nil)

	first := perform(controller, httptest.NewRequest(http.MethodGet, "/api/statistics", http.NoBody))
	second := perform(controller, httptest.NewRequest(http.MethodGet, "/api/statistics", http.NoBody))

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String(), "idempotent with no writes")
	ds.AssertExpectations(t)
}

func TestListEmailLogs(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("RecentEmailLogs", 5).Return([]datastore.EmailLog{
		{ID: 1, Recipient: "user@example.com", DetectionID: "2",
			SentAt: time.Now(), Status: datastore.EmailStatusSent,
			ResultSummary: "Sent results for 3 organisms"},
	}, nil)

	controller := newTestController(t, ds, nil)
	rec := perform(controller, httptest.NewRequest(http.MethodGet, "/api/email-logs?limit=5", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "user@example.com", logs[0]["recipient"])
	assert.Equal(t, datastore.EmailStatusSent, logs[0]["status"])
}

func TestSendResultsEmailValidation(t *testing.T) {
	controller := newTestController(t, new(MockDataStore), &mockNotifier{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/api/send-results-email",
		strings.NewReader(`{"email":"user@example.com"}`))
	req.Header.Set(echoContentType, "application/json")

	rec := perform(controller, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendResultsEmailDetectionMissing(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Get", "9").Return(datastore.Detection{}, notFoundErr("9"))

	controller := newTestController(t, ds, &mockNotifier{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/api/send-results-email",
		strings.NewReader(`{"email":"user@example.com","detection_id":"9"}`))
	req.Header.Set(echoContentType, "application/json")

	rec := perform(controller, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendResultsEmailSuccess(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Get", "3").Return(datastore.Detection{ID: 3, Status: datastore.StatusCompleted}, nil)

	notifier := &mockNotifier{enabled: true}
	controller := newTestController(t, ds, notifier)

	req := httptest.NewRequest(http.MethodPost, "/api/send-results-email",
		strings.NewReader(`{"email":"user@example.com","detection_id":"3"}`))
	req.Header.Set(echoContentType, "application/json")

	rec := perform(controller, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user@example.com"}, notifier.recipients)
}

func TestSendResultsEmailDeliveryFailure(t *testing.T) {
	ds := new(MockDataStore)
	ds.On("Get", "3").Return(datastore.Detection{ID: 3}, nil)

	controller := newTestController(t, ds, &mockNotifier{enabled: true, err: fmt.Errorf("smtp down")})

	req := httptest.NewRequest(http.MethodPost, "/api/send-results-email",
		strings.NewReader(`{"email":"user@example.com","detection_id":"3"}`))
	req.Header.Set(echoContentType, "application/json")

	rec := perform(controller, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeImageRejectsTraversal(t *testing.T) {
	controller := newTestController(t, new(MockDataStore), nil)

	req := httptest.NewRequest(http.MethodGet, "/uploads/..", http.NoBody)
	rec := perform(controller, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSafeFilename(t *testing.T) {
	assert.True(t, safeFilename("processed_sample.png"))
	assert.True(t, safeFilename("0b5f_photo.jpg"))
	assert.False(t, safeFilename(""))
	assert.False(t, safeFilename(".."))
	assert.False(t, safeFilename("../secret.png"))
	assert.False(t, safeFilename(`..\secret.png`))
	assert.False(t, safeFilename("dir/file.png"))
}

const echoContentType = "Content-Type"
