package record

import "time"

type EntityType string

const (
	EntityCompany    EntityType = "Company"
	EntityIndividual EntityType = "Individual"
)

// Entity is the party a record was issued to. It is a tagged variant:
// either a company (name only) or an individual. Individuals sourced from
// bulk imports always carry blanked personal fields.
type Entity struct {
	Type        EntityType `json:"type,omitempty"`
	CompanyName string     `json:"companyName,omitempty"`
	FirstName   string     `json:"firstName,omitempty"`
	MiddleName  string     `json:"middleName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

func NewCompany(name string) Entity {
	return Entity{Type: EntityCompany, CompanyName: name}
}

// NewIndividual returns an individual entity with personal fields blanked.
// Bulk feeds never populate real personal data.
func NewIndividual() Entity {
	return Entity{Type: EntityIndividual, FirstName: "", MiddleName: "", LastName: "", DateOfBirth: nil}
}

func (e Entity) IsCompany() bool {
	return e.Type == EntityCompany
}

func (e Entity) IsZero() bool {
	return e == Entity{}
}
