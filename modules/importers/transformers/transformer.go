package transformers

import (
	"errors"

	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

var ErrNilRow = errors.New("required csv row must be non-nil")

// RecordTransformer maps one source's CSV column vocabulary onto the
// canonical record shape. Implementations compose Envelope and overlay
// source-specific fields; missing optional data degrades to zero values,
// never to an error. The only error condition is the nil-row programming
// guard.
type RecordTransformer interface {
	Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error)
}

// Envelope returns the minimal common fields every transformed record
// carries. Transformer output is always a strict superset of this.
func Envelope(recordType record.Type, sourceSystemRef string) *record.Record {
	return &record.Record{
		SchemaName:      recordType.SchemaName,
		RecordType:      recordType.DisplayName,
		SourceSystemRef: sourceSystemRef,
	}
}

// Directives derives the publish instruction for every configured flavour
// of recordType from the entity type: companies are auto-published,
// individuals are kept private. Re-derived on every create and update.
func Directives(recordType record.Type, issuedTo record.Entity) []record.FlavourDirective {
	directives := make([]record.FlavourDirective, 0, len(recordType.Flavours))
	for _, audience := range []string{record.AudienceLNG, record.AudienceNRCED, record.AudienceBCMI} {
		spec, ok := recordType.Flavours[audience]
		if !ok {
			continue
		}
		directives = append(directives, record.FlavourDirective{
			SchemaName: spec.SchemaName,
			Publish:    issuedTo.IsCompany(),
		})
	}
	return directives
}
