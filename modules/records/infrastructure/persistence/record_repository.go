package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/modules/records/infrastructure/persistence/models"
	"github.com/nrpti-io/nrpti/pkg/composables"
	"github.com/nrpti-io/nrpti/pkg/repo"
)

var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateSourceRef surfaces the partial unique indexes guarding
// (schema_name, source ref). A concurrent import of the same external id
// fails here instead of producing a second master record.
var ErrDuplicateSourceRef = errors.New("record with this source ref already exists")

const recordColumns = `id, schema_name, record_type, source_system_ref,
	source_ref_string_id, source_ref_nris_id, source_ref_ogc_inspection_id,
	record_name, date_issued, issuing_agency, author, legislation,
	legislation_description, location, centroid, issued_to,
	outcome_description, description, summary, project_name, epic_project_id,
	documents, read_roles, write_roles, added_by, updated_by, date_added,
	date_updated, source_date_added, source_date_updated`

type RecordRepository struct{}

func NewRecordRepository() record.Repository {
	return &RecordRepository{}
}

func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id.String())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if err := r.loadFlavours(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RecordRepository) FindBySourceRef(ctx context.Context, schemaName string, ref record.SourceRef) (*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	column, err := sourceRefColumn(ref.Field)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE schema_name = $1 AND `+column+` = $2`,
		schemaName, ref.Value,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadFlavours(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RecordRepository) List(ctx context.Context, params *record.FindParams) ([]*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"TRUE"}
	args := []interface{}{}
	argPos := 1
	if params != nil {
		if params.SchemaName != "" {
			where = append(where, fmt.Sprintf("schema_name = $%d", argPos))
			args = append(args, params.SchemaName)
			argPos++
		}
		if params.SourceSystemRef != "" {
			where = append(where, fmt.Sprintf("source_system_ref = $%d", argPos))
			args = append(args, params.SourceSystemRef)
			argPos++
		}
	}

	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + strings.Join(where, " AND ") + ` ORDER BY date_added DESC`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *RecordRepository) Create(ctx context.Context, rec *record.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	dbRow, err := toDBRecord(rec)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30)`,
		dbRow.ID, dbRow.SchemaName, dbRow.RecordType, dbRow.SourceSystemRef,
		dbRow.SourceRefStringID, dbRow.SourceRefNrisID, dbRow.SourceRefOgcInspectionID,
		dbRow.RecordName, dbRow.DateIssued, dbRow.IssuingAgency, dbRow.Author,
		dbRow.Legislation, dbRow.LegislationDescription, dbRow.Location,
		dbRow.Centroid, dbRow.IssuedTo, dbRow.OutcomeDescription,
		dbRow.Description, dbRow.Summary, dbRow.ProjectName, dbRow.EpicProjectID,
		dbRow.Documents, dbRow.ReadRoles, dbRow.WriteRoles, dbRow.AddedBy,
		dbRow.UpdatedBy, dbRow.DateAdded, dbRow.DateUpdated,
		dbRow.SourceDateAdded, dbRow.SourceDateUpdated,
	)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return ErrDuplicateSourceRef
		}
		return err
	}

	for i := range rec.Flavours {
		if rec.Flavours[i].ID == uuid.Nil {
			rec.Flavours[i].ID = uuid.New()
		}
		if err := r.insertFlavour(ctx, tx, rec.ID, &rec.Flavours[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecordRepository) Update(ctx context.Context, rec *record.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	dbRow, err := toDBRecord(rec)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE records SET
			record_name = $2, date_issued = $3, issuing_agency = $4,
			author = $5, legislation = $6, legislation_description = $7,
			location = $8, centroid = $9, issued_to = $10,
			outcome_description = $11, description = $12, summary = $13,
			project_name = $14, epic_project_id = $15, documents = $16,
			read_roles = $17, write_roles = $18, updated_by = $19,
			date_updated = $20, source_date_updated = $21
		WHERE id = $1`,
		dbRow.ID, dbRow.RecordName, dbRow.DateIssued, dbRow.IssuingAgency,
		dbRow.Author, dbRow.Legislation, dbRow.LegislationDescription,
		dbRow.Location, dbRow.Centroid, dbRow.IssuedTo,
		dbRow.OutcomeDescription, dbRow.Description, dbRow.Summary,
		dbRow.ProjectName, dbRow.EpicProjectID, dbRow.Documents,
		dbRow.ReadRoles, dbRow.WriteRoles, dbRow.UpdatedBy,
		dbRow.DateUpdated, dbRow.SourceDateUpdated,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	for i := range rec.Flavours {
		f := &rec.Flavours[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
			if err := r.insertFlavour(ctx, tx, rec.ID, f); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE record_flavours SET description = $2, summary = $3, read_roles = $4
			WHERE id = $1`,
			f.ID.String(), f.Description, f.Summary, f.ReadRoles,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM records WHERE id = $1`, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) insertFlavour(ctx context.Context, tx repo.Tx, recordID uuid.UUID, f *record.Flavour) error {
	dbRow := toDBFlavour(recordID, f)
	_, err := tx.Exec(ctx, `
		INSERT INTO record_flavours (id, record_id, schema_name, description, summary, read_roles)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		dbRow.ID, dbRow.RecordID, dbRow.SchemaName, dbRow.Description, dbRow.Summary, dbRow.ReadRoles,
	)
	return err
}

func (r *RecordRepository) loadFlavours(ctx context.Context, tx repo.Tx, rec *record.Record) error {
	rows, err := tx.Query(ctx, `
		SELECT id, record_id, schema_name, description, summary, read_roles
		FROM record_flavours WHERE record_id = $1 ORDER BY schema_name`,
		rec.ID.String(),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row models.RecordFlavour
		if err := rows.Scan(&row.ID, &row.RecordID, &row.SchemaName, &row.Description, &row.Summary, &row.ReadRoles); err != nil {
			return err
		}
		f, err := toDomainFlavour(&row)
		if err != nil {
			return err
		}
		rec.Flavours = append(rec.Flavours, *f)
	}
	return rows.Err()
}

func sourceRefColumn(field record.SourceRefField) (string, error) {
	switch field {
	case record.SourceRefStringID:
		return "source_ref_string_id", nil
	case record.SourceRefNrisID:
		return "source_ref_nris_id", nil
	case record.SourceRefOgcInspectionID:
		return "source_ref_ogc_inspection_id", nil
	default:
		return "", errors.Errorf("unknown source ref field: %s", field)
	}
}

func scanRecord(row pgx.Row) (*record.Record, error) {
	var dbRow models.Record
	if err := row.Scan(
		&dbRow.ID, &dbRow.SchemaName, &dbRow.RecordType, &dbRow.SourceSystemRef,
		&dbRow.SourceRefStringID, &dbRow.SourceRefNrisID, &dbRow.SourceRefOgcInspectionID,
		&dbRow.RecordName, &dbRow.DateIssued, &dbRow.IssuingAgency, &dbRow.Author,
		&dbRow.Legislation, &dbRow.LegislationDescription, &dbRow.Location,
		&dbRow.Centroid, &dbRow.IssuedTo, &dbRow.OutcomeDescription,
		&dbRow.Description, &dbRow.Summary, &dbRow.ProjectName, &dbRow.EpicProjectID,
		&dbRow.Documents, &dbRow.ReadRoles, &dbRow.WriteRoles, &dbRow.AddedBy,
		&dbRow.UpdatedBy, &dbRow.DateAdded, &dbRow.DateUpdated,
		&dbRow.SourceDateAdded, &dbRow.SourceDateUpdated,
	); err != nil {
		return nil, err
	}
	return toDomainRecord(&dbRow)
}
