package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
	"github.com/nrpti-io/nrpti/pkg/composables"
	"github.com/nrpti-io/nrpti/pkg/eventbus"
)

var (
	ErrNilRecord         = errors.New("required record must be non-nil")
	ErrNilExistingRecord = errors.New("required existing record must be non-nil")
)

// RecordService is the persistence boundary for master records. It owns
// the flavour publish/unpublish rule: every create and update re-derives
// the public role on each flavour from the directives handed in by the
// caller, so a change of issued-to entity type is always reflected.
type RecordService struct {
	repo      record.Repository
	publisher eventbus.EventBus
}

func NewRecordService(repo record.Repository, publisher eventbus.EventBus) *RecordService {
	return &RecordService{repo: repo, publisher: publisher}
}

// FindExisting looks up the master record matching rec's source ref. A
// record with no source ref never matches anything; no lookup is attempted
// so an absent id cannot accidentally match another record with an absent
// id.
func (s *RecordService) FindExisting(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if rec.SourceRef == nil || rec.SourceRef.Value == "" {
		return nil, nil
	}
	return s.repo.FindBySourceRef(ctx, rec.SchemaName, *rec.SourceRef)
}

// Create persists a new master record together with one flavour row per
// directive. Flavours get the public role only when the directive says
// publish.
func (s *RecordService) Create(ctx context.Context, rec *record.Record, directives []record.FlavourDirective) (*record.Record, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}

	now := time.Now().UTC()
	rec.AddedBy = composables.UseAuthUser(ctx)
	rec.DateAdded = now
	if rec.SourceDateAdded == nil {
		rec.SourceDateAdded = &now
	}
	if len(rec.ReadRoles) == 0 {
		rec.ReadRoles = []string{record.RoleSysadmin}
	}
	if len(rec.WriteRoles) == 0 {
		rec.WriteRoles = []string{record.RoleSysadmin}
	}

	for _, d := range directives {
		roles := []string{record.RoleSysadmin}
		if d.Publish {
			roles = record.AddRole(roles, record.RolePublic)
		}
		rec.Flavours = append(rec.Flavours, record.Flavour{
			SchemaName:  d.SchemaName,
			Description: rec.Description,
			Summary:     rec.Summary,
			ReadRoles:   roles,
		})
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, &RecordCreatedEvent{Record: rec})
	return rec, nil
}

// Update copies the incoming record's fields onto the existing master and
// reasserts every flavour's publish state from the directives, regardless
// of whether anything else changed.
func (s *RecordService) Update(ctx context.Context, rec *record.Record, existing *record.Record, directives []record.FlavourDirective) (*record.Record, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if existing == nil {
		return nil, ErrNilExistingRecord
	}

	now := time.Now().UTC()
	rec.ID = existing.ID
	rec.AddedBy = existing.AddedBy
	rec.DateAdded = existing.DateAdded
	rec.SourceDateAdded = existing.SourceDateAdded
	rec.UpdatedBy = composables.UseAuthUser(ctx)
	rec.DateUpdated = &now
	rec.SourceDateUpdated = &now
	if len(rec.ReadRoles) == 0 {
		rec.ReadRoles = existing.ReadRoles
	}
	if len(rec.WriteRoles) == 0 {
		rec.WriteRoles = existing.WriteRoles
	}

	publish := make(map[string]bool, len(directives))
	for _, d := range directives {
		publish[d.SchemaName] = d.Publish
	}

	for _, f := range existing.Flavours {
		shouldPublish, directed := publish[f.SchemaName]
		roles := f.ReadRoles
		if directed {
			if shouldPublish {
				roles = record.AddRole(roles, record.RolePublic)
			} else {
				roles = record.RemoveRole(roles, record.RolePublic)
			}
		}
		rec.Flavours = append(rec.Flavours, record.Flavour{
			ID:          f.ID,
			SchemaName:  f.SchemaName,
			Description: rec.Description,
			Summary:     rec.Summary,
			ReadRoles:   roles,
		})
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, &RecordUpdatedEvent{Record: rec})
	return rec, nil
}

func (s *RecordService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publisher.Publish(ctx, &RecordDeletedEvent{ID: id})
	return nil
}

func (s *RecordService) GetByID(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RecordService) List(ctx context.Context, params *record.FindParams) ([]*record.Record, error) {
	return s.repo.List(ctx, params)
}
