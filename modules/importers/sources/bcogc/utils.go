package bcogc

import (
	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

const (
	SourceSystemRef = "bcogc-csv"
	IssuingAgency   = "BC Oil and Gas Commission"
)

// Project is a fixed operator-to-project linkage. The epic project id is
// the id of the project's entry in the EPIC system.
type Project struct {
	ProjectName   string
	EpicProjectID string
}

var operatorProjects = map[string]Project{
	"LNG Canada Development Inc.":   {ProjectName: "LNG Canada", EpicProjectID: "588510cdaaecd9001b815f84"},
	"Coastal GasLink Pipeline Ltd.": {ProjectName: "Coastal Gaslink", EpicProjectID: "588511c4aaecd9001b825604"},
}

// CleanRow returns a copy of row with the feed's literal "-" placeholder
// replaced by the empty string in every column.
func CleanRow(row csvparse.Row) csvparse.Row {
	if row == nil {
		return nil
	}
	cleaned := make(csvparse.Row, len(row))
	for k, v := range row {
		if v == "-" {
			v = ""
		}
		cleaned[k] = v
	}
	return cleaned
}

// ProjectNameAndEpicProjectID maps a known operator to its project
// linkage. Unrecognized or absent operators assert no linkage.
func ProjectNameAndEpicProjectID(row csvparse.Row) *Project {
	p, ok := operatorProjects[row.Get("operator")]
	if !ok {
		return nil
	}
	return &p
}

// EntityType classifies the inspected party. Every BCOGC row names a
// permitted operator, which is always a company.
func EntityType(row csvparse.Row) record.EntityType {
	if row.Get("operator") != "" {
		return record.EntityCompany
	}
	return record.EntityIndividual
}

// Legislation returns the inspection authority citation carried by every
// BCOGC row.
func Legislation() *record.Legislation {
	return &record.Legislation{Act: "Oil and Gas Activities Act", Section: "57"}
}
