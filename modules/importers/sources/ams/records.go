package ams

import (
	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

const (
	SourceSystemRef = "ams-csv"
	IssuingAgency   = "Environmental Protection Division"
)

// Legislation maps the AMS authorization type onto the Environmental
// Management Act provision that authorizes that order class. Rows without
// an authorization type carry no citation.
func Legislation(row csvparse.Row) *record.Legislation {
	switch row.Get("authorizationtype") {
	case "Pollution Abatement":
		return &record.Legislation{Act: "Environmental Management Act", Section: "83"}
	case "Pollution Prevention":
		return &record.Legislation{Act: "Environmental Management Act", Section: "81"}
	default:
		return nil
	}
}

// LegislationDescription is the display form of the authorization type,
// e.g. "Pollution Abatement Order".
func LegislationDescription(row csvparse.Row) string {
	authType := row.Get("authorizationtype")
	if authType == "" {
		return ""
	}
	return authType + " Order"
}

// EntityType treats any row naming a client as a company. The AMS feed
// only ever names permitted operators, never private individuals.
func EntityType(row csvparse.Row) record.EntityType {
	if row.Get("clientname") != "" {
		return record.EntityCompany
	}
	return record.EntityIndividual
}

type Orders struct{}

func NewOrders() transformers.RecordTransformer { return &Orders{} }

func (t *Orders) Transform(row csvparse.Row) (*record.Record, []record.FlavourDirective, error) {
	if row == nil {
		return nil, nil, transformers.ErrNilRow
	}

	rec := transformers.Envelope(record.Order, SourceSystemRef)

	if id := row.Get("authnumber"); id != "" {
		rec.SourceRef = &record.SourceRef{Field: record.SourceRefStringID, Value: id}
	}

	rec.RecordName = transformers.OrDash(row.Get("authnumber"))
	rec.DateIssued = transformers.ParseDate(row.Get("issuedate"))
	rec.IssuingAgency = IssuingAgency
	rec.Author = IssuingAgency
	rec.Legislation = Legislation(row)
	rec.LegislationDescription = LegislationDescription(row)
	rec.Location = row.Get("facilitylocation")
	rec.Description = transformers.OrDash(row.Get("authorizationtype"))
	rec.Summary = transformers.OrDash(row.Get("authorizationtype"))

	if EntityType(row) == record.EntityCompany {
		rec.IssuedTo = record.NewCompany(row.Get("clientname"))
		rec.Centroid = transformers.ParseCentroid(row.Get("longitude"), row.Get("latitude"))
	} else {
		rec.IssuedTo = record.NewIndividual()
	}

	return rec, transformers.Directives(record.Order, rec.IssuedTo), nil
}
