package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	importpersistence "github.com/nrpti-io/nrpti/modules/importers/infrastructure/persistence"
	importcontrollers "github.com/nrpti-io/nrpti/modules/importers/presentation/controllers"
	importservices "github.com/nrpti-io/nrpti/modules/importers/services"
	"github.com/nrpti-io/nrpti/modules/records/domain/redaction"
	recordpersistence "github.com/nrpti-io/nrpti/modules/records/infrastructure/persistence"
	recordservices "github.com/nrpti-io/nrpti/modules/records/services"
	"github.com/nrpti-io/nrpti/pkg/configuration"
	"github.com/nrpti-io/nrpti/pkg/eventbus"
	"github.com/nrpti-io/nrpti/pkg/metrics"
	"github.com/nrpti-io/nrpti/pkg/middleware"
	"github.com/nrpti-io/nrpti/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	if err := runMigrations(conf); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	bus := eventbus.NewEventPublisher(logger)

	recordService := recordservices.NewRecordService(recordpersistence.NewRecordRepository(), bus)
	policy := redaction.NewAgeAgencyPolicy(conf.Redaction.AgencyList(), conf.Redaction.AgeOfMajority)
	redactionService := recordservices.NewRedactionService(recordpersistence.NewRedactedSubsetRepository(), policy, logger)
	redactionService.Register(bus)

	runner := importservices.NewTaskRunner(logger)
	importService := importservices.NewImportService(
		recordService,
		importpersistence.NewTaskAuditRepository(),
		runner,
		logger,
	)

	controllers := []server.Controller{
		importcontrollers.NewImportController(importService, conf),
	}
	if conf.Prometheus.Enabled {
		controllers = append(controllers, metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	middlewares := []mux.MiddlewareFunc{
		middleware.ProvidePool(pool),
		middleware.ProvideAuthUser(conf.AuthUserHeader),
		middleware.RequestParams(),
		middleware.RequestLogger(logger),
	}

	srv := server.NewHTTPServer(controllers, middlewares, []string{conf.Origin})
	go func() {
		logger.Infof("listening on %s", conf.SocketAddress)
		if err := srv.Start(conf.SocketAddress); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	runner.Wait()
}

func runMigrations(conf *configuration.Configuration) error {
	db, err := sql.Open("pgx", conf.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	for _, dir := range []string{"records", "importers"} {
		if err := goose.Up(db, filepath.Join(conf.MigrationsDir, dir)); err != nil {
			return err
		}
	}
	return nil
}
