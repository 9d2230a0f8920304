package persistence

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/modules/records/infrastructure/persistence/models"
)

func toDBRecord(rec *record.Record) (*models.Record, error) {
	row := &models.Record{
		ID:                     rec.ID.String(),
		SchemaName:             rec.SchemaName,
		RecordType:             rec.RecordType,
		SourceSystemRef:        rec.SourceSystemRef,
		RecordName:             rec.RecordName,
		DateIssued:             rec.DateIssued,
		IssuingAgency:          rec.IssuingAgency,
		Author:                 rec.Author,
		LegislationDescription: rec.LegislationDescription,
		Location:               rec.Location,
		Centroid:               rec.Centroid,
		OutcomeDescription:     rec.OutcomeDescription,
		Description:            rec.Description,
		Summary:                rec.Summary,
		ProjectName:            rec.ProjectName,
		EpicProjectID:          rec.EpicProjectID,
		ReadRoles:              rec.ReadRoles,
		WriteRoles:             rec.WriteRoles,
		AddedBy:                rec.AddedBy,
		UpdatedBy:              rec.UpdatedBy,
		DateAdded:              rec.DateAdded,
		DateUpdated:            rec.DateUpdated,
		SourceDateAdded:        rec.SourceDateAdded,
		SourceDateUpdated:      rec.SourceDateUpdated,
	}

	if rec.SourceRef != nil {
		value := rec.SourceRef.Value
		switch rec.SourceRef.Field {
		case record.SourceRefStringID:
			row.SourceRefStringID = &value
		case record.SourceRefNrisID:
			row.SourceRefNrisID = &value
		case record.SourceRefOgcInspectionID:
			row.SourceRefOgcInspectionID = &value
		default:
			return nil, errors.Errorf("unknown source ref field: %s", rec.SourceRef.Field)
		}
	}

	if rec.Legislation != nil {
		b, err := json.Marshal(rec.Legislation)
		if err != nil {
			return nil, errors.Wrap(err, "marshal legislation")
		}
		row.Legislation = b
	}
	if !rec.IssuedTo.IsZero() {
		b, err := json.Marshal(rec.IssuedTo)
		if err != nil {
			return nil, errors.Wrap(err, "marshal issuedTo")
		}
		row.IssuedTo = b
	}
	for _, d := range rec.Documents {
		row.Documents = append(row.Documents, d.String())
	}
	return row, nil
}

func toDomainRecord(row *models.Record) (*record.Record, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse record id")
	}

	rec := &record.Record{
		ID:                     id,
		SchemaName:             row.SchemaName,
		RecordType:             row.RecordType,
		SourceSystemRef:        row.SourceSystemRef,
		RecordName:             row.RecordName,
		DateIssued:             row.DateIssued,
		IssuingAgency:          row.IssuingAgency,
		Author:                 row.Author,
		LegislationDescription: row.LegislationDescription,
		Location:               row.Location,
		Centroid:               row.Centroid,
		OutcomeDescription:     row.OutcomeDescription,
		Description:            row.Description,
		Summary:                row.Summary,
		ProjectName:            row.ProjectName,
		EpicProjectID:          row.EpicProjectID,
		ReadRoles:              row.ReadRoles,
		WriteRoles:             row.WriteRoles,
		AddedBy:                row.AddedBy,
		UpdatedBy:              row.UpdatedBy,
		DateAdded:              row.DateAdded,
		DateUpdated:            row.DateUpdated,
		SourceDateAdded:        row.SourceDateAdded,
		SourceDateUpdated:      row.SourceDateUpdated,
	}

	switch {
	case row.SourceRefStringID != nil:
		rec.SourceRef = &record.SourceRef{Field: record.SourceRefStringID, Value: *row.SourceRefStringID}
	case row.SourceRefNrisID != nil:
		rec.SourceRef = &record.SourceRef{Field: record.SourceRefNrisID, Value: *row.SourceRefNrisID}
	case row.SourceRefOgcInspectionID != nil:
		rec.SourceRef = &record.SourceRef{Field: record.SourceRefOgcInspectionID, Value: *row.SourceRefOgcInspectionID}
	}

	if len(row.Legislation) > 0 {
		var leg record.Legislation
		if err := json.Unmarshal(row.Legislation, &leg); err != nil {
			return nil, errors.Wrap(err, "unmarshal legislation")
		}
		rec.Legislation = &leg
	}
	if len(row.IssuedTo) > 0 {
		if err := json.Unmarshal(row.IssuedTo, &rec.IssuedTo); err != nil {
			return nil, errors.Wrap(err, "unmarshal issuedTo")
		}
	}
	for _, d := range row.Documents {
		docID, err := uuid.Parse(d)
		if err != nil {
			return nil, errors.Wrap(err, "parse document id")
		}
		rec.Documents = append(rec.Documents, docID)
	}
	return rec, nil
}

func toDBFlavour(recordID uuid.UUID, f *record.Flavour) *models.RecordFlavour {
	return &models.RecordFlavour{
		ID:          f.ID.String(),
		RecordID:    recordID.String(),
		SchemaName:  f.SchemaName,
		Description: f.Description,
		Summary:     f.Summary,
		ReadRoles:   f.ReadRoles,
	}
}

func toDomainFlavour(row *models.RecordFlavour) (*record.Flavour, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse flavour id")
	}
	return &record.Flavour{
		ID:          id,
		SchemaName:  row.SchemaName,
		Description: row.Description,
		Summary:     row.Summary,
		ReadRoles:   row.ReadRoles,
	}, nil
}
