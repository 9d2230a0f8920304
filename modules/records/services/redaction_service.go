package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/modules/records/domain/redaction"
	"github.com/nrpti-io/nrpti/pkg/eventbus"
	"github.com/nrpti-io/nrpti/pkg/metrics"
)

// RedactionService maintains the redacted record subset as a side effect
// of master record writes. Failures are logged and absorbed: a stale
// subset entry is an acceptable degraded state, recovered by the next
// successful write of the same record.
type RedactionService struct {
	subset record.RedactedRepository
	policy redaction.AnonymityPolicy
	log    *logrus.Logger
}

func NewRedactionService(subset record.RedactedRepository, policy redaction.AnonymityPolicy, log *logrus.Logger) *RedactionService {
	return &RedactionService{subset: subset, policy: policy, log: log}
}

// Register subscribes the service to the record lifecycle events.
func (s *RedactionService) Register(bus eventbus.EventBus) {
	bus.Subscribe(s.onRecordCreated)
	bus.Subscribe(s.onRecordUpdated)
	bus.Subscribe(s.onRecordDeleted)
}

// Redact returns the public-facing projection of rec: when the anonymity
// policy applies, issuedTo is removed entirely and documents are emptied.
// Deterministic and idempotent.
func (s *RedactionService) Redact(rec *record.Record) *record.Record {
	out := *rec
	if s.policy.IsAnonymous(rec.IssuedTo, rec.IssuingAgency) {
		out.IssuedTo = record.Entity{}
		out.Documents = nil
	}
	return &out
}

func (s *RedactionService) onRecordCreated(ctx context.Context, ev *RecordCreatedEvent) {
	if err := s.subset.Save(ctx, s.Redact(ev.Record)); err != nil {
		metrics.RedactionFailures.Inc()
		s.log.WithError(err).WithField("schemaName", ev.Record.SchemaName).
			Error("failed to save redacted record subset entry")
	}
}

func (s *RedactionService) onRecordUpdated(ctx context.Context, ev *RecordUpdatedEvent) {
	if err := s.subset.Update(ctx, s.Redact(ev.Record)); err != nil {
		metrics.RedactionFailures.Inc()
		s.log.WithError(err).WithField("schemaName", ev.Record.SchemaName).
			Error("failed to update redacted record subset entry")
	}
}

func (s *RedactionService) onRecordDeleted(ctx context.Context, ev *RecordDeletedEvent) {
	if err := s.subset.Delete(ctx, ev.ID); err != nil {
		metrics.RedactionFailures.Inc()
		s.log.WithError(err).WithField("recordId", ev.ID.String()).
			Error("failed to delete redacted record subset entry")
	}
}
