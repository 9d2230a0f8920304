package bcogc

import (
	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

type Inspections struct{}

func NewInspections() transformers.RecordTransformer { return &Inspections{} }

func (t *Inspections) Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	if row == nil {
		return nil, nil, transformers.ErrNilRow
	}
	// The feed uses "-" as its empty-cell placeholder; clean before any
	// column is read so fallbacks fire the same way as for truly absent
	// values.
	row = CleanRow(row)

	rec := transformers.Envelope(record.Inspection, SourceSystemRef)

	if id := row.Get("inspection number"); id != "" {
		rec.SourceRef = &record.SourceRef{Field: record.SourceRefOgcInspectionID, Value: id}
	}

	rec.RecordName = transformers.OrDash(row.Get("inspection number"))
	rec.DateIssued = transformers.ParseDate(row.Get("inspection date"))
	rec.IssuingAgency = IssuingAgency
	rec.Author = IssuingAgency
	rec.Legislation = Legislation()
	rec.Location = row.Get("location")
	rec.Description = transformers.OrDash(row.Get("activities inspected"))
	rec.Summary = transformers.OrDash(row.Get("inspection number"))
	rec.OutcomeDescription = row.Get("status")

	if p := ProjectNameAndEpicProjectID(row); p != nil {
		rec.ProjectName = p.ProjectName
		rec.EpicProjectID = p.EpicProjectID
	}

	if EntityType(row) == record.EntityCompany {
		rec.IssuedTo = record.NewCompany(row.Get("operator"))
		rec.Centroid = transformers.ParseCentroid(row.Get("longitude"), row.Get("latitude"))
	} else {
		rec.IssuedTo = record.NewIndividual()
	}

	return rec, transformers.Directives(record.Inspection, rec.IssuedTo), nil
}
