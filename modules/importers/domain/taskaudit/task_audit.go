package taskaudit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusReceived  Status = "Received"
	StatusParsing   Status = "Parsing"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusError     Status = "Error"
)

// RowError records one failed row of a batch. Line is 1-based and counts
// data rows, not file lines.
type RowError struct {
	Line       int    `json:"line"`
	SchemaName string `json:"schemaName"`
	Message    string `json:"message"`
}

// TaskAudit is the persisted progress record for one background import
// job. Clients poll it by id; the job owns all writes to it.
type TaskAudit struct {
	ID             uuid.UUID
	DataSourceType string
	RecordType     string
	Status         Status
	StartDate      time.Time
	FinishDate     *time.Time
	ItemTotal      int
	ItemsProcessed int
	RowErrors      []RowError
	ErrorMessage   string
	AddedBy        string
}

func New(dataSourceType, recordType, addedBy string) *TaskAudit {
	return &TaskAudit{
		ID:             uuid.New(),
		DataSourceType: dataSourceType,
		RecordType:     recordType,
		Status:         StatusReceived,
		StartDate:      time.Now().UTC(),
		AddedBy:        addedBy,
	}
}

// Finish stamps the terminal status and finish date.
func (t *TaskAudit) Finish(status Status) {
	now := time.Now().UTC()
	t.Status = status
	t.FinishDate = &now
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TaskAudit, error)
	Create(ctx context.Context, audit *TaskAudit) error
	Update(ctx context.Context, audit *TaskAudit) error
}
