package nro

import (
	"strings"

	"github.com/nrpti-io/nrpti/modules/importers/csvparse"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

const (
	SourceSystemRef = "nro-csv"
	IssuingAgency   = "Natural Resource Officers"
)

// complianceStatusCompliant is the literal status value the feed uses for
// rows with no enforcement outcome.
const complianceStatusCompliant = "Compliant"

// Legislation derives the cited act and section from the row's function
// column. Land Management rows dispatch further on the activity column.
// Any other non-empty function falls through to the Forest and Range
// Practices Act default. Returns nil only when the function column itself
// is absent.
func Legislation(row csvparse.Row) *record.Legislation {
	function := row.Get("function")
	if function == "" {
		return nil
	}

	switch function {
	case "Forest Practices":
		return &record.Legislation{Act: "Forest and Range Practices Act", Section: "52"}
	case "Wildfire Management":
		return &record.Legislation{Act: "Wildfire Act", Section: "6"}
	case "Land Management":
		switch row.Get("activity") {
		case "Unauthorized Occupation":
			return &record.Legislation{Act: "Land Act", Section: "60"}
		case "Unauthorized Use":
			return &record.Legislation{Act: "Land Act", Section: "59", SubSection: "2"}
		default:
			return &record.Legislation{Act: "Land Act", Section: "60"}
		}
	default:
		return &record.Legislation{Act: "Forest and Range Practices Act", Section: "52"}
	}
}

// OutcomeDescription formats the enforcement outcome. Alleged
// non-compliance rows zip the semicolon-delimited action, act and section
// lists into index-aligned entries.
func OutcomeDescription(row csvparse.Row) string {
	status := row.Get("compliance status")
	switch status {
	case "":
		return ""
	case complianceStatusCompliant:
		return "Compliant - No Action Required"
	case "Alleged Non-Compliance":
		return status + " - " + zipOutcome(
			row.Get("action taken"),
			row.Get("act or regulation"),
			row.Get("section"),
		)
	default:
		return status + " - " + row.Get("action taken")
	}
}

func zipOutcome(actions, acts, sections string) string {
	actionList := strings.Split(actions, ";")
	actList := strings.Split(acts, ";")
	sectionList := strings.Split(sections, ";")

	parts := make([]string, 0, len(actionList))
	for i, action := range actionList {
		action = strings.TrimSpace(action)

		var act, section string
		if i < len(actList) {
			act = transformers.StripActAcronym(actList[i])
		}
		if i < len(sectionList) {
			section = strings.TrimSpace(sectionList[i])
		}

		detail := strings.TrimSpace(act + " " + section)
		if detail == "" {
			parts = append(parts, action)
			continue
		}
		parts = append(parts, action+" - "+detail)
	}
	return strings.Join(parts, "; ")
}

// companyClientTypes is the allow-list of client type identifiers known to
// denote companies. Anything else defaults to Individual, the privacy-safe
// choice.
var companyClientTypes = map[string]struct{}{
	"Corporation":     {},
	"Company":         {},
	"Limited Company": {},
	"Partnership":     {},
}

func EntityType(row csvparse.Row) record.EntityType {
	if _, ok := companyClientTypes[row.Get("client type")]; ok {
		return record.EntityCompany
	}
	return record.EntityIndividual
}
