package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/datasources"
	"github.com/nrpti-io/nrpti/modules/importers/domain/taskaudit"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
	recordservices "github.com/nrpti-io/nrpti/modules/records/services"
	"github.com/nrpti-io/nrpti/pkg/composables"
	"github.com/nrpti-io/nrpti/pkg/metrics"
)

var (
	ErrMissingDataSourceType = errors.New("required dataSourceType must be non-empty")
	ErrMissingRecordType     = errors.New("required recordType must be non-empty")
	ErrMissingFile           = errors.New("required csv file must be non-empty")
	ErrUnknownImporter       = errors.New("no importer registered for dataSourceType and recordType")
)

// Upload is one submitted import file. Filename is used only to pick the
// parser (xlsx vs csv).
type Upload struct {
	Filename string
	Data     []byte
}

// ImportService runs CSV imports as background jobs and records progress
// in task audits. Submit returns as soon as the job is accepted; clients
// observe success, failure, and per-row errors by fetching the audit.
type ImportService struct {
	records *recordservices.RecordService
	audits  taskaudit.Repository
	runner  *TaskRunner
	log     *logrus.Logger

	// inTx wraps one row's writes in a transaction.
	inTx func(ctx context.Context, fn func(context.Context) error) error
}

func NewImportService(
	records *recordservices.RecordService,
	audits taskaudit.Repository,
	runner *TaskRunner,
	log *logrus.Logger,
) *ImportService {
	return &ImportService{
		records: records,
		audits:  audits,
		runner:  runner,
		log:     log,
		inTx:    composables.InTx,
	}
}

// Submit validates the request, creates the task audit, and launches the
// import in the background. The returned id identifies the audit record;
// validation failures are synchronous and create no audit.
func (s *ImportService) Submit(ctx context.Context, dataSourceType, recordType string, upload Upload) (uuid.UUID, error) {
	if dataSourceType == "" {
		return uuid.Nil, ErrMissingDataSourceType
	}
	if recordType == "" {
		return uuid.Nil, ErrMissingRecordType
	}
	if len(upload.Data) == 0 {
		return uuid.Nil, ErrMissingFile
	}
	if _, ok := datasources.Resolve(dataSourceType, recordType); !ok {
		return uuid.Nil, ErrUnknownImporter
	}

	audit := taskaudit.New(dataSourceType, recordType, composables.UseAuthUser(ctx))
	if err := s.audits.Create(ctx, audit); err != nil {
		return uuid.Nil, err
	}

	s.runner.Go(ctx, audit.ID, func(jobCtx context.Context) {
		s.run(jobCtx, audit, upload)
	})
	return audit.ID, nil
}

// GetTask fetches one task audit by id.
func (s *ImportService) GetTask(ctx context.Context, id uuid.UUID) (*taskaudit.TaskAudit, error) {
	return s.audits.GetByID(ctx, id)
}

// Cancel requests cancellation of a running import.
func (s *ImportService) Cancel(id uuid.UUID) bool {
	return s.runner.Cancel(id)
}

func (s *ImportService) run(ctx context.Context, audit *taskaudit.TaskAudit, upload Upload) {
	started := time.Now()
	log := s.log.WithFields(logrus.Fields{
		"taskId":         audit.ID,
		"dataSourceType": audit.DataSourceType,
		"recordType":     audit.RecordType,
	})

	audit.Status = taskaudit.StatusParsing
	if err := s.audits.Update(ctx, audit); err != nil {
		log.WithError(err).Error("failed to mark task parsing")
	}

	rows, err := parseUpload(upload)
	if err != nil {
		s.fail(ctx, audit, log, errors.Wrap(err, "parse upload"))
		return
	}

	transformer, ok := datasources.Resolve(audit.DataSourceType, audit.RecordType)
	if !ok {
		// Submit validated the pair; hitting this means the registry
		// changed underneath a queued job.
		s.fail(ctx, audit, log, ErrUnknownImporter)
		return
	}

	audit.Status = taskaudit.StatusRunning
	audit.ItemTotal = len(rows)
	if err := s.audits.Update(ctx, audit); err != nil {
		log.WithError(err).Error("failed to mark task running")
	}

	for i, row := range rows {
		if ctx.Err() != nil {
			s.fail(ctx, audit, log, errors.Wrap(ctx.Err(), "import canceled"))
			return
		}
		line := i + 1
		if err := s.importRow(ctx, transformer, row); err != nil {
			audit.RowErrors = append(audit.RowErrors, taskaudit.RowError{
				Line:       line,
				SchemaName: audit.RecordType,
				Message:    err.Error(),
			})
			log.WithError(err).WithField("line", line).Warn("row import failed")
			metrics.ImportRowsFailed.WithLabelValues(audit.DataSourceType).Inc()
			continue
		}
		audit.ItemsProcessed++
		metrics.ImportRowsProcessed.WithLabelValues(audit.DataSourceType).Inc()
	}

	audit.Finish(taskaudit.StatusCompleted)
	if err := s.audits.Update(context.WithoutCancel(ctx), audit); err != nil {
		log.WithError(err).Error("failed to mark task completed")
	}
	metrics.ImportTasksFinished.WithLabelValues(string(taskaudit.StatusCompleted)).Inc()
	metrics.ImportDuration.WithLabelValues(audit.DataSourceType).Observe(time.Since(started).Seconds())
	log.WithFields(logrus.Fields{
		"itemTotal":      audit.ItemTotal,
		"itemsProcessed": audit.ItemsProcessed,
		"rowErrors":      len(audit.RowErrors),
	}).Info("import completed")
}

// importRow transforms one row and creates or updates the master record
// inside its own transaction, so a failed row rolls back cleanly without
// touching its neighbors.
func (s *ImportService) importRow(ctx context.Context, transformer transformers.RecordTransformer, row csvparse.Row) error {
	rec, directives, err := transformer.Transform(row)
	if err != nil {
		return errors.Wrap(err, "transform row")
	}
	return s.inTx(ctx, func(txCtx context.Context) error {
		existing, err := s.records.FindExisting(txCtx, rec)
		if err != nil {
			return errors.Wrap(err, "find existing record")
		}
		if existing != nil {
			_, err = s.records.Update(txCtx, rec, existing, directives)
			return errors.Wrap(err, "update record")
		}
		_, err = s.records.Create(txCtx, rec, directives)
		return errors.Wrap(err, "create record")
	})
}

func (s *ImportService) fail(ctx context.Context, audit *taskaudit.TaskAudit, log *logrus.Entry, cause error) {
	// the job context may already be canceled; the terminal status write
	// must still reach the database
	ctx = context.WithoutCancel(ctx)
	audit.ErrorMessage = cause.Error()
	audit.Finish(taskaudit.StatusError)
	if err := s.audits.Update(ctx, audit); err != nil {
		log.WithError(err).Error("failed to mark task errored")
	}
	metrics.ImportTasksFinished.WithLabelValues(string(taskaudit.StatusError)).Inc()
	log.WithError(cause).Error("import failed")
}

func parseUpload(upload Upload) ([]csvparse.Row, error) {
	if strings.HasSuffix(strings.ToLower(upload.Filename), ".xlsx") {
		return csvparse.RowsXLSX(upload.Data)
	}
	return csvparse.Rows(upload.Data)
}
