package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrpti-io/nrpti/modules/importers/domain/taskaudit"
	importservices "github.com/nrpti-io/nrpti/modules/importers/services"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	recordservices "github.com/nrpti-io/nrpti/modules/records/services"
	"github.com/nrpti-io/nrpti/pkg/configuration"
	"github.com/nrpti-io/nrpti/pkg/eventbus"
)

type memAuditRepo struct {
	mu     sync.Mutex
	audits map[uuid.UUID]taskaudit.TaskAudit
}

func (m *memAuditRepo) GetByID(_ context.Context, id uuid.UUID) (*taskaudit.TaskAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	audit, ok := m.audits[id]
	if !ok {
		return nil, errors.New("task audit not found")
	}
	return &audit, nil
}

func (m *memAuditRepo) Create(_ context.Context, audit *taskaudit.TaskAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[audit.ID] = *audit
	return nil
}

func (m *memAuditRepo) Update(_ context.Context, audit *taskaudit.TaskAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[audit.ID] = *audit
	return nil
}

type memRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*record.Record
}

func (m *memRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return rec, nil
}

func (m *memRecordRepo) FindBySourceRef(_ context.Context, schemaName string, ref record.SourceRef) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.SchemaName == schemaName && rec.SourceRef != nil && *rec.SourceRef == ref {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *memRecordRepo) List(_ context.Context, _ *record.FindParams) ([]*record.Record, error) {
	return nil, nil
}

func (m *memRecordRepo) Create(_ context.Context, rec *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *memRecordRepo) Update(_ context.Context, rec *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memRecordRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func newRouterFixture(t *testing.T) (*mux.Router, *importservices.TaskRunner, *memAuditRepo) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	auditRepo := &memAuditRepo{audits: map[uuid.UUID]taskaudit.TaskAudit{}}
	recordRepo := &memRecordRepo{records: map[uuid.UUID]*record.Record{}}
	runner := importservices.NewTaskRunner(log)
	records := recordservices.NewRecordService(recordRepo, eventbus.NewEventPublisher(log))
	imports := importservices.NewImportService(records, auditRepo, runner, log)

	r := mux.NewRouter()
	NewImportController(imports, configuration.Use()).Register(r)
	return r, runner, auditRepo
}

func multipartUpload(t *testing.T, fields map[string]string, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("upfile", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

const nroCSV = "Record ID,Date,Function,Client Type,Client Name,Region\n" +
	"1001,2020-01-15,Forest Practices,Corporation,ABC Company,Cariboo\n"

func TestSubmitAcceptsUploadAndReturnsTaskID(t *testing.T) {
	router, runner, auditRepo := newRouterFixture(t)

	body, contentType := multipartUpload(t, map[string]string{
		"dataSourceType": "nro-csv",
		"recordType":     "Inspection",
	}, "rows.csv", nroCSV)

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TaskID string `json:"taskId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	taskID, err := uuid.Parse(resp.TaskID)
	require.NoError(t, err)

	runner.Wait()
	deadline := time.Now().Add(5 * time.Second)
	for {
		audit, err := auditRepo.GetByID(context.Background(), taskID)
		require.NoError(t, err)
		if audit.Status == taskaudit.StatusCompleted {
			break
		}
		require.True(t, time.Now().Before(deadline), "task never completed")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitMissingFieldsIsSynchronousError(t *testing.T) {
	router, _, _ := newRouterFixture(t)

	body, contentType := multipartUpload(t, map[string]string{
		"recordType": "Inspection",
	}, "rows.csv", nroCSV)

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "dataSourceType")
}

func TestSubmitMissingFileIsSynchronousError(t *testing.T) {
	router, _, _ := newRouterFixture(t)

	body, contentType := multipartUpload(t, map[string]string{
		"dataSourceType": "nro-csv",
		"recordType":     "Inspection",
	}, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskReturnsAudit(t *testing.T) {
	router, _, auditRepo := newRouterFixture(t)

	audit := taskaudit.New("nro-csv", "Inspection", "importer")
	audit.Finish(taskaudit.StatusCompleted)
	audit.ItemTotal = 4
	audit.ItemsProcessed = 3
	audit.RowErrors = []taskaudit.RowError{{Line: 2, SchemaName: "Inspection", Message: "bad row"}}
	require.NoError(t, auditRepo.Create(context.Background(), audit))

	req := httptest.NewRequest(http.MethodGet, "/api/import/"+audit.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status         string `json:"status"`
		ItemTotal      int    `json:"itemTotal"`
		ItemsProcessed int    `json:"itemsProcessed"`
		RowErrors      []struct {
			Line    int    `json:"line"`
			Message string `json:"message"`
		} `json:"rowErrors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Completed", resp.Status)
	assert.Equal(t, 4, resp.ItemTotal)
	assert.Equal(t, 3, resp.ItemsProcessed)
	require.Len(t, resp.RowErrors, 1)
	assert.Equal(t, 2, resp.RowErrors[0].Line)
}

func TestGetTaskUnknownID(t *testing.T) {
	router, _, _ := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/import/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/import/not-a-uuid", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelUnknownTaskIs404(t *testing.T) {
	router, _, _ := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/import/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
