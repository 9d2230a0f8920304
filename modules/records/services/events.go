package services

import (
	"github.com/google/uuid"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

// Record lifecycle events. Published by RecordService after every
// successful write; the redaction service keeps the redacted subset in
// lock-step by subscribing to these.

type RecordCreatedEvent struct {
	Record *record.Record
}

type RecordUpdatedEvent struct {
	Record *record.Record
}

type RecordDeletedEvent struct {
	ID uuid.UUID
}
