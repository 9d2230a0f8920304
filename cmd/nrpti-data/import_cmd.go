package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/datasources"
	"github.com/nrpti-io/nrpti/modules/importers/domain/taskaudit"
	importpersistence "github.com/nrpti-io/nrpti/modules/importers/infrastructure/persistence"
	importservices "github.com/nrpti-io/nrpti/modules/importers/services"
	"github.com/nrpti-io/nrpti/modules/records/domain/redaction"
	recordpersistence "github.com/nrpti-io/nrpti/modules/records/infrastructure/persistence"
	recordservices "github.com/nrpti-io/nrpti/modules/records/services"
	"github.com/nrpti-io/nrpti/pkg/composables"
	"github.com/nrpti-io/nrpti/pkg/configuration"
	"github.com/nrpti-io/nrpti/pkg/eventbus"
	"github.com/nrpti-io/nrpti/pkg/logging"
)

type importOptions struct {
	file       string
	source     string
	recordType string
	dryRun     bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import one CSV or XLSX file of enforcement records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the CSV/XLSX file (required)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Data source type, e.g. nro-csv (required)")
	cmd.Flags().StringVar(&opts.recordType, "record-type", "", "Record type, e.g. Inspection (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Transform rows without writing to the database")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("record-type")

	return cmd
}

func runImport(ctx context.Context, opts importOptions) error {
	if _, ok := datasources.Resolve(opts.source, opts.recordType); !ok {
		return withCode(exitUsage, fmt.Errorf(
			"no importer for %s/%s; known importers: %s",
			opts.source, opts.recordType, strings.Join(datasources.Known(), ", "),
		))
	}

	data, err := os.ReadFile(filepath.Clean(opts.file))
	if err != nil {
		return withCode(exitUsage, err)
	}

	if opts.dryRun {
		return dryRun(opts, data)
	}

	conf := configuration.Use()
	log := logging.ConsoleLogger(conf.LogrusLogLevel())
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()
	ctx = composables.WithPool(ctx, pool)

	bus := eventbus.NewEventPublisher(log)
	records := recordservices.NewRecordService(recordpersistence.NewRecordRepository(), bus)
	policy := redaction.NewAgeAgencyPolicy(conf.Redaction.AgencyList(), conf.Redaction.AgeOfMajority)
	recordservices.NewRedactionService(recordpersistence.NewRedactedSubsetRepository(), policy, log).Register(bus)
	runner := importservices.NewTaskRunner(log)
	imports := importservices.NewImportService(records, importpersistence.NewTaskAuditRepository(), runner, log)

	taskID, err := imports.Submit(ctx, opts.source, opts.recordType, importservices.Upload{
		Filename: filepath.Base(opts.file),
		Data:     data,
	})
	if err != nil {
		return withCode(exitValidation, err)
	}
	runner.Wait()

	audit, err := imports.GetTask(ctx, taskID)
	if err != nil {
		return withCode(exitDB, err)
	}

	fmt.Printf("task %s: %s\n", audit.ID, audit.Status)
	fmt.Printf("rows: %d total, %d imported, %d failed\n",
		audit.ItemTotal, audit.ItemsProcessed, len(audit.RowErrors))
	for _, rowErr := range audit.RowErrors {
		fmt.Printf("  line %d: %s\n", rowErr.Line, rowErr.Message)
	}
	if audit.Status != taskaudit.StatusCompleted {
		return withCode(exitDB, fmt.Errorf("import finished with status %s: %s", audit.Status, audit.ErrorMessage))
	}
	return nil
}

func dryRun(opts importOptions, data []byte) error {
	started := time.Now()

	var rows []csvparse.Row
	var err error
	if strings.HasSuffix(strings.ToLower(opts.file), ".xlsx") {
		rows, err = csvparse.RowsXLSX(data)
	} else {
		rows, err = csvparse.Rows(data)
	}
	if err != nil {
		return withCode(exitValidation, err)
	}

	transformer, _ := datasources.Resolve(opts.source, opts.recordType)
	ok, failed := 0, 0
	for i, row := range rows {
		if _, _, err := transformer.Transform(row); err != nil {
			failed++
			fmt.Printf("  line %d: %v\n", i+1, err)
			continue
		}
		ok++
	}

	fmt.Printf("dry run: %d rows, %d transform ok, %d failed (%s)\n",
		len(rows), ok, failed, time.Since(started).Round(time.Millisecond))
	if failed > 0 {
		return withCode(exitValidation, fmt.Errorf("%d rows failed to transform", failed))
	}
	return nil
}
