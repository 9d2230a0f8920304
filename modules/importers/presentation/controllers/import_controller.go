package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nrpti-io/nrpti/modules/importers/services"
	"github.com/nrpti-io/nrpti/pkg/configuration"
	"github.com/nrpti-io/nrpti/pkg/server"
)

// ImportController accepts CSV/XLSX uploads and exposes the task audits
// they produce. The upload response only acknowledges job acceptance;
// progress is observed by fetching the audit.
type ImportController struct {
	imports   *services.ImportService
	conf      *configuration.Configuration
	apiPrefix string
}

func NewImportController(imports *services.ImportService, conf *configuration.Configuration) server.Controller {
	return &ImportController{
		imports:   imports,
		conf:      conf,
		apiPrefix: "/api/import",
	}
}

func (c *ImportController) Key() string {
	return c.apiPrefix
}

func (c *ImportController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.HandleFunc("", c.Submit).Methods(http.MethodPost)
	api.HandleFunc("/{taskId}", c.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/{taskId}", c.CancelTask).Methods(http.MethodDelete)
}

type submitResponse struct {
	TaskID string `json:"taskId"`
}

type taskResponse struct {
	TaskID         string            `json:"taskId"`
	DataSourceType string            `json:"dataSourceType"`
	RecordType     string            `json:"recordType"`
	Status         string            `json:"status"`
	StartDate      string            `json:"startDate"`
	FinishDate     *string           `json:"finishDate,omitempty"`
	ItemTotal      int               `json:"itemTotal"`
	ItemsProcessed int               `json:"itemsProcessed"`
	RowErrors      []rowErrorPayload `json:"rowErrors,omitempty"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
}

type rowErrorPayload struct {
	Line       int    `json:"line"`
	SchemaName string `json:"schemaName"`
	Message    string `json:"message"`
}

func (c *ImportController) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.conf.MaxUploadSize)
	if err := r.ParseMultipartForm(c.conf.MaxUploadMemory); err != nil {
		writeJSONError(w, http.StatusBadRequest, errors.Wrap(err, "parse multipart form"))
		return
	}

	file, header, err := r.FormFile("upfile")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, services.ErrMissingFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, errors.Wrap(err, "read upload"))
		return
	}

	taskID, err := c.imports.Submit(
		r.Context(),
		r.FormValue("dataSourceType"),
		r.FormValue("recordType"),
		services.Upload{Filename: header.Filename, Data: data},
	)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{TaskID: taskID.String()})
}

func (c *ImportController) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(mux.Vars(r)["taskId"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, errors.Wrap(err, "parse task id"))
		return
	}

	audit, err := c.imports.GetTask(r.Context(), taskID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}

	resp := taskResponse{
		TaskID:         audit.ID.String(),
		DataSourceType: audit.DataSourceType,
		RecordType:     audit.RecordType,
		Status:         string(audit.Status),
		StartDate:      audit.StartDate.Format("2006-01-02T15:04:05Z07:00"),
		ItemTotal:      audit.ItemTotal,
		ItemsProcessed: audit.ItemsProcessed,
		ErrorMessage:   audit.ErrorMessage,
	}
	if audit.FinishDate != nil {
		finished := audit.FinishDate.Format("2006-01-02T15:04:05Z07:00")
		resp.FinishDate = &finished
	}
	for _, rowErr := range audit.RowErrors {
		resp.RowErrors = append(resp.RowErrors, rowErrorPayload{
			Line:       rowErr.Line,
			SchemaName: rowErr.SchemaName,
			Message:    rowErr.Message,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *ImportController) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(mux.Vars(r)["taskId"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, errors.Wrap(err, "parse task id"))
		return
	}
	if !c.imports.Cancel(taskID) {
		writeJSONError(w, http.StatusNotFound, errors.New("task not running"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
