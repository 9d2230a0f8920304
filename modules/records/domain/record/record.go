package record

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role granted on public-facing flavours when a record may be shown to
// anonymous visitors.
const RolePublic = "public"

// RoleSysadmin is always present on master records created by the importers.
const RoleSysadmin = "sysadmin"

// SourceRefField names the column holding a record's external-source id.
// Each import source designates exactly one of these.
type SourceRefField string

const (
	SourceRefStringID        SourceRefField = "source_ref_string_id"
	SourceRefNrisID          SourceRefField = "source_ref_nris_id"
	SourceRefOgcInspectionID SourceRefField = "source_ref_ogc_inspection_id"
)

// SourceRef is the identifier from the originating system, used to detect
// "this row already exists" on re-import. A master record's source ref is
// unique within its schema name.
type SourceRef struct {
	Field SourceRefField
	Value string
}

type Legislation struct {
	Act        string `json:"act"`
	Section    string `json:"section,omitempty"`
	SubSection string `json:"subSection,omitempty"`
	Paragraph  string `json:"paragraph,omitempty"`
}

// Flavour is a per-audience projection of a master record with its own
// visibility roles.
type Flavour struct {
	ID          uuid.UUID
	SchemaName  string
	Description string
	Summary     string
	ReadRoles   []string
}

// FlavourDirective instructs the persistence boundary to publish or
// unpublish one flavour. Derived from the entity type of the incoming
// issuedTo on every create and update.
type FlavourDirective struct {
	SchemaName string
	Publish    bool
}

// Record is the canonical, audience-independent representation of one
// enforcement action.
type Record struct {
	ID              uuid.UUID
	SchemaName      string
	RecordType      string
	SourceSystemRef string
	SourceRef       *SourceRef

	RecordName             string
	DateIssued             *time.Time
	IssuingAgency          string
	Author                 string
	Legislation            *Legislation
	LegislationDescription string
	Location               string
	Centroid               []float64
	IssuedTo               Entity
	OutcomeDescription     string
	Description            string
	Summary                string
	ProjectName            string
	EpicProjectID          string
	Documents              []uuid.UUID

	ReadRoles  []string
	WriteRoles []string

	AddedBy           string
	UpdatedBy         string
	DateAdded         time.Time
	DateUpdated       *time.Time
	SourceDateAdded   *time.Time
	SourceDateUpdated *time.Time

	Flavours []Flavour
}

// HasRole reports whether roles contains role.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole returns roles with role appended if absent.
func AddRole(roles []string, role string) []string {
	if HasRole(roles, role) {
		return roles
	}
	return append(roles, role)
}

// RemoveRole returns roles with every occurrence of role removed.
func RemoveRole(roles []string, role string) []string {
	out := roles[:0:0]
	for _, r := range roles {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}

type FindParams struct {
	SchemaName      string
	SourceSystemRef string
	Limit           int
	Offset          int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// FindBySourceRef returns the master record of the given schema whose
	// designated source ref matches, with its flavours populated, or nil
	// when no such record exists.
	FindBySourceRef(ctx context.Context, schemaName string, ref SourceRef) (*Record, error)
	List(ctx context.Context, params *FindParams) ([]*Record, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedactedRepository maintains the derived redacted_record_subset rows in
// lock-step with master record writes.
type RedactedRepository interface {
	Save(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
}
