package alc

import (
	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

const (
	SourceSystemRef = "alc-csv"
	IssuingAgency   = "Agricultural Land Commission"
)

// Every ALC row cites the same provision: the commission's compliance and
// enforcement authority under its own act.
func Legislation() *record.Legislation {
	return &record.Legislation{Act: "Agricultural Land Commission Act", Section: "49"}
}

type Inspections struct{}

func NewInspections() transformers.RecordTransformer { return &Inspections{} }

func (t *Inspections) Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	if row == nil {
		return nil, nil, transformers.ErrNilRow
	}

	rec := transformers.Envelope(record.Inspection, SourceSystemRef)

	if id := row.Get("record id"); id != "" {
		rec.SourceRef = &record.SourceRef{Field: record.SourceRefStringID, Value: id}
	}

	rec.RecordName = transformers.OrDash(row.Get("record id"))
	rec.DateIssued = transformers.ParseDate(row.Get("date"))
	rec.IssuingAgency = IssuingAgency
	rec.Author = IssuingAgency
	rec.Legislation = Legislation()
	rec.Location = row.Get("local government")
	rec.Description = transformers.OrDash(row.Get("reason for inspection"))
	rec.Summary = transformers.OrDash(row.Get("inspection ref no"))
	rec.OutcomeDescription = row.Get("compliance status")

	// The ALC feed names only property owners, never whether the owner is
	// a company, so every subject is treated as an individual.
	rec.IssuedTo = record.NewIndividual()
	rec.Centroid = transformers.ParseCentroid(row.Get("longitude"), row.Get("latitude"))

	return rec, transformers.Directives(record.Inspection, rec.IssuedTo), nil
}
