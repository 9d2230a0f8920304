package persistence

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/nrpti-io/nrpti/modules/importers/domain/taskaudit"
	"github.com/nrpti-io/nrpti/modules/importers/infrastructure/persistence/models"
	"github.com/nrpti-io/nrpti/pkg/composables"
)

var ErrTaskAuditNotFound = errors.New("task audit not found")

const taskAuditColumns = `
	id, data_source_type, record_type, status, start_date, finish_date,
	item_total, items_processed, row_errors, error_message, added_by`

type TaskAuditRepository struct{}

func NewTaskAuditRepository() taskaudit.Repository {
	return &TaskAuditRepository{}
}

func (r *TaskAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*taskaudit.TaskAudit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
		SELECT `+taskAuditColumns+`
		FROM task_audits WHERE id = $1`, id.String())

	var m models.TaskAudit
	if err := row.Scan(
		&m.ID, &m.DataSourceType, &m.RecordType, &m.Status, &m.StartDate,
		&m.FinishDate, &m.ItemTotal, &m.ItemsProcessed, &m.RowErrors,
		&m.ErrorMessage, &m.AddedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskAuditNotFound
		}
		return nil, errors.Wrap(err, "get task audit")
	}
	return toDomainTaskAudit(&m)
}

func (r *TaskAuditRepository) Create(ctx context.Context, audit *taskaudit.TaskAudit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	m, err := toDBTaskAudit(audit)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO task_audits (`+taskAuditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.DataSourceType, m.RecordType, m.Status, m.StartDate,
		m.FinishDate, m.ItemTotal, m.ItemsProcessed, m.RowErrors,
		m.ErrorMessage, m.AddedBy,
	)
	return errors.Wrap(err, "create task audit")
}

func (r *TaskAuditRepository) Update(ctx context.Context, audit *taskaudit.TaskAudit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	m, err := toDBTaskAudit(audit)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE task_audits SET
			status = $2, finish_date = $3, item_total = $4,
			items_processed = $5, row_errors = $6, error_message = $7
		WHERE id = $1`,
		m.ID, m.Status, m.FinishDate, m.ItemTotal, m.ItemsProcessed,
		m.RowErrors, m.ErrorMessage,
	)
	if err != nil {
		return errors.Wrap(err, "update task audit")
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskAuditNotFound
	}
	return nil
}

func toDBTaskAudit(audit *taskaudit.TaskAudit) (*models.TaskAudit, error) {
	m := &models.TaskAudit{
		ID:             audit.ID.String(),
		DataSourceType: audit.DataSourceType,
		RecordType:     audit.RecordType,
		Status:         string(audit.Status),
		StartDate:      audit.StartDate,
		FinishDate:     audit.FinishDate,
		ItemTotal:      audit.ItemTotal,
		ItemsProcessed: audit.ItemsProcessed,
		ErrorMessage:   audit.ErrorMessage,
		AddedBy:        audit.AddedBy,
	}
	if len(audit.RowErrors) > 0 {
		b, err := json.Marshal(audit.RowErrors)
		if err != nil {
			return nil, errors.Wrap(err, "marshal row errors")
		}
		m.RowErrors = b
	}
	return m, nil
}

func toDomainTaskAudit(m *models.TaskAudit) (*taskaudit.TaskAudit, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse task audit id")
	}
	audit := &taskaudit.TaskAudit{
		ID:             id,
		DataSourceType: m.DataSourceType,
		RecordType:     m.RecordType,
		Status:         taskaudit.Status(m.Status),
		StartDate:      m.StartDate,
		FinishDate:     m.FinishDate,
		ItemTotal:      m.ItemTotal,
		ItemsProcessed: m.ItemsProcessed,
		ErrorMessage:   m.ErrorMessage,
		AddedBy:        m.AddedBy,
	}
	if len(m.RowErrors) > 0 {
		if err := json.Unmarshal(m.RowErrors, &audit.RowErrors); err != nil {
			return nil, errors.Wrap(err, "unmarshal row errors")
		}
	}
	return audit, nil
}
