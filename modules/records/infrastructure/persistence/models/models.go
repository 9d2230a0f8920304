package models

import (
	"encoding/json"
	"time"
)

type Record struct {
	ID              string
	SchemaName      string
	RecordType      string
	SourceSystemRef string

	SourceRefStringID        *string
	SourceRefNrisID          *string
	SourceRefOgcInspectionID *string

	RecordName             string
	DateIssued             *time.Time
	IssuingAgency          string
	Author                 string
	Legislation            json.RawMessage
	LegislationDescription string
	Location               string
	Centroid               []float64
	IssuedTo               json.RawMessage
	OutcomeDescription     string
	Description            string
	Summary                string
	ProjectName            string
	EpicProjectID          string
	Documents              []string

	ReadRoles  []string
	WriteRoles []string

	AddedBy           string
	UpdatedBy         string
	DateAdded         time.Time
	DateUpdated       *time.Time
	SourceDateAdded   *time.Time
	SourceDateUpdated *time.Time
}

type RecordFlavour struct {
	ID          string
	RecordID    string
	SchemaName  string
	Description string
	Summary     string
	ReadRoles   []string
}

type RedactedRecord struct {
	RecordID           string
	SchemaName         string
	RecordType         string
	RecordName         string
	DateIssued         *time.Time
	IssuingAgency      string
	Legislation        json.RawMessage
	Location           string
	OutcomeDescription string
	Description        string
	Summary            string
	IssuedTo           json.RawMessage
	Documents          []string
	ReadRoles          []string
}
