package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/modules/records/domain/redaction"
)

type fakeSubsetRepo struct {
	saved   []*record.Record
	updated []*record.Record
	deleted []uuid.UUID

	saveErr   error
	updateErr error
	deleteErr error
}

func (f *fakeSubsetRepo) Save(_ context.Context, rec *record.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeSubsetRepo) Update(_ context.Context, rec *record.Record) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeSubsetRepo) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func redactionFixture(subset *fakeSubsetRepo) *RedactionService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	policy := redaction.NewAgeAgencyPolicy([]string{"Agricultural Land Commission"}, 19)
	return NewRedactionService(subset, policy, log)
}

func companyRecord() *record.Record {
	return &record.Record{
		ID:            uuid.New(),
		SchemaName:    "Inspection",
		IssuingAgency: "Agricultural Land Commission",
		IssuedTo:      record.NewCompany("ABC Company"),
		Documents:     []uuid.UUID{uuid.New()},
	}
}

func individualRecord() *record.Record {
	rec := companyRecord()
	rec.IssuedTo = record.NewIndividual()
	return rec
}

func TestRedactKeepsCompanyIssuedTo(t *testing.T) {
	svc := redactionFixture(&fakeSubsetRepo{})
	rec := companyRecord()

	redacted := svc.Redact(rec)
	assert.Equal(t, rec.IssuedTo, redacted.IssuedTo)
	assert.Equal(t, rec.Documents, redacted.Documents)
}

func TestRedactStripsAnonymousIndividual(t *testing.T) {
	svc := redactionFixture(&fakeSubsetRepo{})
	rec := individualRecord()

	redacted := svc.Redact(rec)
	assert.True(t, redacted.IssuedTo.IsZero())
	assert.Empty(t, redacted.Documents)
	// Master record untouched.
	assert.Equal(t, record.EntityIndividual, rec.IssuedTo.Type)
	assert.Len(t, rec.Documents, 1)
}

func TestRedactStripsUnauthorizedAgencyIndividual(t *testing.T) {
	svc := redactionFixture(&fakeSubsetRepo{})
	dob := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := individualRecord()
	rec.IssuedTo.DateOfBirth = &dob
	rec.IssuingAgency = "Unknown Agency"

	redacted := svc.Redact(rec)
	assert.True(t, redacted.IssuedTo.IsZero())
}

func TestRedactIsIdempotent(t *testing.T) {
	svc := redactionFixture(&fakeSubsetRepo{})
	rec := individualRecord()

	once := svc.Redact(rec)
	twice := svc.Redact(once)
	assert.Equal(t, once, twice)
}

func TestRedactionFollowsRecordLifecycle(t *testing.T) {
	subset := &fakeSubsetRepo{}
	svc := redactionFixture(subset)
	bus := quietBus()
	svc.Register(bus)

	rec := individualRecord()
	ctx := context.Background()

	bus.Publish(ctx, &RecordCreatedEvent{Record: rec})
	require.Len(t, subset.saved, 1)
	assert.True(t, subset.saved[0].IssuedTo.IsZero())

	bus.Publish(ctx, &RecordUpdatedEvent{Record: rec})
	require.Len(t, subset.updated, 1)

	bus.Publish(ctx, &RecordDeletedEvent{ID: rec.ID})
	require.Len(t, subset.deleted, 1)
	assert.Equal(t, rec.ID, subset.deleted[0])
}

func TestRedactionFailuresDoNotPropagate(t *testing.T) {
	subset := &fakeSubsetRepo{
		saveErr:   errors.New("save failed"),
		updateErr: errors.New("update failed"),
		deleteErr: errors.New("delete failed"),
	}
	svc := redactionFixture(subset)
	bus := quietBus()
	svc.Register(bus)

	rec := companyRecord()
	require.NotPanics(t, func() {
		bus.Publish(context.Background(), &RecordCreatedEvent{Record: rec})
		bus.Publish(context.Background(), &RecordUpdatedEvent{Record: rec})
		bus.Publish(context.Background(), &RecordDeletedEvent{ID: rec.ID})
	})
}
