package persistence

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/modules/records/infrastructure/persistence/models"
	"github.com/nrpti-io/nrpti/pkg/composables"
)

// RedactedSubsetRepository persists the derived redacted_record_subset
// rows. Rows here are pure derived state: written only in lock-step with
// master record writes, never independently mutated.
type RedactedSubsetRepository struct{}

func NewRedactedSubsetRepository() record.RedactedRepository {
	return &RedactedSubsetRepository{}
}

func (r *RedactedSubsetRepository) Save(ctx context.Context, rec *record.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	dbRow, err := toDBRedacted(rec)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO redacted_record_subset (
			record_id, schema_name, record_type, record_name, date_issued,
			issuing_agency, legislation, location, outcome_description,
			description, summary, issued_to, documents, read_roles
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (record_id) DO UPDATE SET
			schema_name = EXCLUDED.schema_name,
			record_type = EXCLUDED.record_type,
			record_name = EXCLUDED.record_name,
			date_issued = EXCLUDED.date_issued,
			issuing_agency = EXCLUDED.issuing_agency,
			legislation = EXCLUDED.legislation,
			location = EXCLUDED.location,
			outcome_description = EXCLUDED.outcome_description,
			description = EXCLUDED.description,
			summary = EXCLUDED.summary,
			issued_to = EXCLUDED.issued_to,
			documents = EXCLUDED.documents,
			read_roles = EXCLUDED.read_roles`,
		dbRow.RecordID, dbRow.SchemaName, dbRow.RecordType, dbRow.RecordName,
		dbRow.DateIssued, dbRow.IssuingAgency, dbRow.Legislation, dbRow.Location,
		dbRow.OutcomeDescription, dbRow.Description, dbRow.Summary,
		dbRow.IssuedTo, dbRow.Documents, dbRow.ReadRoles,
	)
	return err
}

func (r *RedactedSubsetRepository) Update(ctx context.Context, rec *record.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	dbRow, err := toDBRedacted(rec)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE redacted_record_subset SET
			schema_name = $2, record_type = $3, record_name = $4,
			date_issued = $5, issuing_agency = $6, legislation = $7,
			location = $8, outcome_description = $9, description = $10,
			summary = $11, issued_to = $12, documents = $13, read_roles = $14
		WHERE record_id = $1`,
		dbRow.RecordID, dbRow.SchemaName, dbRow.RecordType, dbRow.RecordName,
		dbRow.DateIssued, dbRow.IssuingAgency, dbRow.Legislation, dbRow.Location,
		dbRow.OutcomeDescription, dbRow.Description, dbRow.Summary,
		dbRow.IssuedTo, dbRow.Documents, dbRow.ReadRoles,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// The record predates subset maintenance; fall back to insert.
		return r.Save(ctx, rec)
	}
	return nil
}

func (r *RedactedSubsetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM redacted_record_subset WHERE record_id = $1`, id.String())
	return err
}

func toDBRedacted(rec *record.Record) (*models.RedactedRecord, error) {
	row := &models.RedactedRecord{
		RecordID:           rec.ID.String(),
		SchemaName:         rec.SchemaName,
		RecordType:         rec.RecordType,
		RecordName:         rec.RecordName,
		DateIssued:         rec.DateIssued,
		IssuingAgency:      rec.IssuingAgency,
		Location:           rec.Location,
		OutcomeDescription: rec.OutcomeDescription,
		Description:        rec.Description,
		Summary:            rec.Summary,
		ReadRoles:          rec.ReadRoles,
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
