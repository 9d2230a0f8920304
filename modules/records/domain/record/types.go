package record

// FlavourSpec names the schema of one applicable flavour of a record type.
type FlavourSpec struct {
	SchemaName string
}

// Flavour audience keys.
const (
	AudienceLNG   = "lng"
	AudienceNRCED = "nrced"
	AudienceBCMI  = "bcmi"
)

// Type describes one record schema and the flavours it fans out to.
type Type struct {
	SchemaName  string
	DisplayName string
	Flavours    map[string]FlavourSpec
}

var (
	Inspection = Type{
		SchemaName:  "Inspection",
		DisplayName: "Inspection",
		Flavours: map[string]FlavourSpec{
			AudienceLNG:   {SchemaName: "InspectionLNG"},
			AudienceNRCED: {SchemaName: "InspectionNRCED"},
		},
	}

	Order = Type{
		SchemaName:  "Order",
		DisplayName: "Order",
		Flavours: map[string]FlavourSpec{
			AudienceLNG:   {SchemaName: "OrderLNG"},
			AudienceNRCED: {SchemaName: "OrderNRCED"},
		},
	}

	Ticket = Type{
		SchemaName:  "Ticket",
		DisplayName: "Ticket",
		Flavours: map[string]FlavourSpec{
			AudienceLNG:   {SchemaName: "TicketLNG"},
			AudienceNRCED: {SchemaName: "TicketNRCED"},
		},
	}
)

var types = map[string]Type{
	Inspection.SchemaName: Inspection,
	Order.SchemaName:      Order,
	Ticket.SchemaName:     Ticket,
}

// TypeByName resolves a record type descriptor by schema name.
func TypeByName(name string) (Type, bool) {
	t, ok := types[name]
	return t, ok
}
