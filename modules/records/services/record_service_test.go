package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/pkg/composables"
	"github.com/nrpti-io/nrpti/pkg/eventbus"
)

type fakeRecordRepo struct {
	records map[uuid.UUID]*record.Record

	created []*record.Record
	updated []*record.Record
	deleted []uuid.UUID

	createErr error
	updateErr error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: map[uuid.UUID]*record.Record{}}
}

func (f *fakeRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*record.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return rec, nil
}

func (f *fakeRecordRepo) FindBySourceRef(_ context.Context, schemaName string, ref record.SourceRef) (*record.Record, error) {
	for _, rec := range f.records {
		if rec.SchemaName == schemaName && rec.SourceRef != nil && *rec.SourceRef == ref {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) List(_ context.Context, _ *record.FindParams) ([]*record.Record, error) {
	return nil, nil
}

func (f *fakeRecordRepo) Create(_ context.Context, rec *record.Record) error {
	if f.createErr != nil {
		return f.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for i := range rec.Flavours {
		if rec.Flavours[i].ID == uuid.Nil {
			rec.Flavours[i].ID = uuid.New()
		}
	}
	f.records[rec.ID] = rec
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecordRepo) Update(_ context.Context, rec *record.Record) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.records[rec.ID] = rec
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeRecordRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.records, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func quietBus() eventbus.EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(log)
}

func companyDirectives() []record.FlavourDirective {
	return []record.FlavourDirective{
		{SchemaName: "InspectionLNG", Publish: true},
		{SchemaName: "InspectionNRCED", Publish: true},
	}
}

func individualDirectives() []record.FlavourDirective {
	return []record.FlavourDirective{
		{SchemaName: "InspectionLNG", Publish: false},
		{SchemaName: "InspectionNRCED", Publish: false},
	}
}

func inspectionRecord(ref string) *record.Record {
	return &record.Record{
		SchemaName:      "Inspection",
		RecordType:      "Inspection",
		SourceSystemRef: "alc-csv",
		SourceRef:       &record.SourceRef{Field: record.SourceRefStringID, Value: ref},
		RecordName:      "INS-" + ref,
		IssuedTo:        record.NewCompany("ABC Company"),
	}
}

func TestCreateNilRecordFails(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo(), quietBus())

	_, err := svc.Create(context.Background(), nil, nil)
	require.EqualError(t, err, "required record must be non-nil")
}

func TestUpdateNilArgumentsFail(t *testing.T) {
	svc := NewRecordService(newFakeRecordRepo(), quietBus())
	rec := inspectionRecord("1")

	_, err := svc.Update(context.Background(), nil, rec, nil)
	require.EqualError(t, err, "required record must be non-nil")

	_, err = svc.Update(context.Background(), rec, nil, nil)
	require.EqualError(t, err, "required existing record must be non-nil")
}

func TestCreatePublishesCompanyFlavours(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	created, err := svc.Create(context.Background(), inspectionRecord("100"), companyDirectives())
	require.NoError(t, err)
	require.Len(t, created.Flavours, 2)
	for _, f := range created.Flavours {
		assert.True(t, record.HasRole(f.ReadRoles, record.RolePublic), f.SchemaName)
	}
}

func TestCreateKeepsIndividualFlavoursPrivate(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	rec := inspectionRecord("101")
	rec.IssuedTo = record.NewIndividual()

	created, err := svc.Create(context.Background(), rec, individualDirectives())
	require.NoError(t, err)
	require.Len(t, created.Flavours, 2)
	for _, f := range created.Flavours {
		assert.False(t, record.HasRole(f.ReadRoles, record.RolePublic), f.SchemaName)
	}
}

func TestCreateStampsAuditFields(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	ctx := composables.WithAuthUser(context.Background(), "importer@idir")
	created, err := svc.Create(ctx, inspectionRecord("102"), nil)
	require.NoError(t, err)

	assert.Equal(t, "importer@idir", created.AddedBy)
	assert.False(t, created.DateAdded.IsZero())
	require.NotNil(t, created.SourceDateAdded)
	assert.Equal(t, []string{record.RoleSysadmin}, created.ReadRoles)
}

func TestUpdateReassertsPublishStateOnEveryUpdate(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	created, err := svc.Create(context.Background(), inspectionRecord("103"), companyDirectives())
	require.NoError(t, err)

	// The same external id arrives again, now issued to an individual.
	incoming := inspectionRecord("103")
	incoming.IssuedTo = record.NewIndividual()

	updated, err := svc.Update(context.Background(), incoming, created, individualDirectives())
	require.NoError(t, err)
	require.Len(t, updated.Flavours, 2)
	for _, f := range updated.Flavours {
		assert.False(t, record.HasRole(f.ReadRoles, record.RolePublic), f.SchemaName)
		assert.NotEqual(t, uuid.Nil, f.ID)
	}

	// And back to a company: the public role is re-added.
	again := inspectionRecord("103")
	republished, err := svc.Update(context.Background(), again, updated, companyDirectives())
	require.NoError(t, err)
	for _, f := range republished.Flavours {
		assert.True(t, record.HasRole(f.ReadRoles, record.RolePublic), f.SchemaName)
	}
}

func TestUpdateKeepsIdentityAndCreationAudit(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	ctx := composables.WithAuthUser(context.Background(), "alice")
	created, err := svc.Create(ctx, inspectionRecord("104"), nil)
	require.NoError(t, err)

	ctx2 := composables.WithAuthUser(context.Background(), "bob")
	updated, err := svc.Update(ctx2, inspectionRecord("104"), created, nil)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "alice", updated.AddedBy)
	assert.Equal(t, "bob", updated.UpdatedBy)
	require.NotNil(t, updated.DateUpdated)
	require.NotNil(t, updated.SourceDateUpdated)
}

func TestUpdateAnonymousCallerStampsEmptyUsername(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	created, err := svc.Create(context.Background(), inspectionRecord("105"), nil)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), inspectionRecord("105"), created, nil)
	require.NoError(t, err)
	assert.Equal(t, "", updated.UpdatedBy)
}

func TestFindExistingWithoutSourceRefSkipsLookup(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	// A record with no ref in the store must never match another record
	// with no ref.
	stored := inspectionRecord("")
	stored.SourceRef = nil
	_, err := svc.Create(context.Background(), stored, nil)
	require.NoError(t, err)

	probe := inspectionRecord("")
	probe.SourceRef = nil
	found, err := svc.FindExisting(context.Background(), probe)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindExistingMatchesBySchemaAndRef(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := NewRecordService(repo, quietBus())

	created, err := svc.Create(context.Background(), inspectionRecord("200"), nil)
	require.NoError(t, err)

	found, err := svc.FindExisting(context.Background(), inspectionRecord("200"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	other := inspectionRecord("200")
	other.SchemaName = "Order"
	found, err = svc.FindExisting(context.Background(), other)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestLifecycleEventsArePublished(t *testing.T) {
	repo := newFakeRecordRepo()
	bus := quietBus()
	svc := NewRecordService(repo, bus)

	var createdEvents, updatedEvents, deletedEvents int
	bus.Subscribe(func(ctx context.Context, ev *RecordCreatedEvent) { createdEvents++ })
	bus.Subscribe(func(ctx context.Context, ev *RecordUpdatedEvent) { updatedEvents++ })
	bus.Subscribe(func(ctx context.Context, ev *RecordDeletedEvent) { deletedEvents++ })

	created, err := svc.Create(context.Background(), inspectionRecord("300"), nil)
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), inspectionRecord("300"), created, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	assert.Equal(t, 1, createdEvents)
	assert.Equal(t, 1, updatedEvents)
	assert.Equal(t, 1, deletedEvents)
}
