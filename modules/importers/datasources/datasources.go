package datasources

import (
	"sort"

	"github.com/nrpti-io/nrpti/modules/importers/sources/alc"
	"github.com/nrpti-io/nrpti/modules/importers/sources/ams"
	"github.com/nrpti-io/nrpti/modules/importers/sources/bcogc"
	"github.com/nrpti-io/nrpti/modules/importers/sources/nro"
	"github.com/nrpti-io/nrpti/modules/importers/transformers"
)

type key struct {
	dataSourceType string
	recordType     string
}

// The importer catalog. One entry per (source feed, record type) pair the
// system knows how to ingest; the value constructs a fresh transformer.
var importers = map[key]func() transformers.RecordTransformer{
	{alc.SourceSystemRef, "Inspection"}:   alc.NewInspections,
	{ams.SourceSystemRef, "Order"}:        ams.NewOrders,
	{bcogc.SourceSystemRef, "Inspection"}: bcogc.NewInspections,
	{nro.SourceSystemRef, "Inspection"}:   nro.NewInspections,
	{nro.SourceSystemRef, "Order"}:        nro.NewOrders,
	{nro.SourceSystemRef, "Ticket"}:       nro.NewTickets,
}

// Resolve returns the transformer for a (dataSourceType, recordType) pair,
// or false when the pair is not a known importer.
func Resolve(dataSourceType, recordType string) (transformers.RecordTransformer, bool) {
	ctor, ok := importers[key{dataSourceType, recordType}]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Known lists every registered (dataSourceType, recordType) pair, sorted,
// for CLI help and validation messages.
func Known() []string {
	out := make([]string, 0, len(importers))
	for k := range importers {
		out = append(out, k.dataSourceType+"/"+k.recordType)
	}
	sort.Strings(out)
	return out
}
