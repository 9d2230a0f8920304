package models

import (
	"encoding/json"
	"time"
)

type TaskAudit struct {
	ID             string
	DataSourceType string
	RecordType     string
	Status         string
	StartDate      time.Time
	FinishDate     *time.Time
	ItemTotal      int
	ItemsProcessed int
	RowErrors      json.RawMessage
	ErrorMessage   string
	AddedBy        string
}
