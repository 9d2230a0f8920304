package nro

import (
	"strconv"

	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

type Inspections struct{}

func NewInspections() transformers.RecordTransformer { return &Inspections{} }

func (t *Inspections) Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	return transform(record.Inspection, row)
}

type Orders struct{}

func NewOrders() transformers.RecordTransformer { return &Orders{} }

func (t *Orders) Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	return transform(record.Order, row)
}

type Tickets struct{}

func NewTickets() transformers.RecordTransformer { return &Tickets{} }

func (t *Tickets) Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	return transform(record.Ticket, row)
}

func transform(recordType record.Type, row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	if row == nil {
		return nil, nil, transformers.ErrNilRow
	}

	rec := transformers.Envelope(recordType, SourceSystemRef)

	// The NRO feed's record id is numeric; anything that does not parse
	// leaves the ref unset and the row is treated as new.
	if id := row.Get("record id"); id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			rec.SourceRef = &record.SourceRef{Field: record.SourceRefNrisID, Value: strconv.FormatInt(n, 10)}
		}
	}

	rec.RecordName = transformers.OrDash(row.Get("record id"))
	rec.DateIssued = transformers.ParseDate(row.Get("date"))
	rec.IssuingAgency = IssuingAgency
	rec.Author = IssuingAgency
	rec.Legislation = Legislation(row)
	rec.OutcomeDescription = OutcomeDescription(row)
	rec.Location = row.Get("region")
	rec.Description = transformers.OrDash(row.Get("function"))
	rec.Summary = transformers.OrDash(row.Get("function"))

	if EntityType(row) == record.EntityCompany {
		rec.IssuedTo = record.NewCompany(row.Get("client name"))
		rec.Centroid = transformers.ParseCentroid(row.Get("longitude"), row.Get("latitude"))
	} else {
		rec.IssuedTo = record.NewIndividual()
	}

	return rec, transformers.Directives(recordType, rec.IssuedTo), nil
}
