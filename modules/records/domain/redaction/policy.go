package redaction

import (
	"time"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

// AnonymityPolicy decides whether a record's issued-to party must be kept
// anonymous in public-facing projections. The threshold and agency
// allow-list are business rules that evolve outside this module, hence the
// interface.
type AnonymityPolicy interface {
	IsAnonymous(issuedTo record.Entity, issuingAgency string) bool
}

// AgeAgencyPolicy is the default policy: a party is anonymous when the
// issuing agency is not authorized to name individuals, or when the party
// is an individual who is not verifiably of legal age.
type AgeAgencyPolicy struct {
	authorized    map[string]struct{}
	ageOfMajority int
	now           func() time.Time
}

func NewAgeAgencyPolicy(authorizedAgencies []string, ageOfMajority int) *AgeAgencyPolicy {
	authorized := make(map[string]struct{}, len(authorizedAgencies))
	for _, a := range authorizedAgencies {
		authorized[a] = struct{}{}
	}
	return &AgeAgencyPolicy{
		authorized:    authorized,
		ageOfMajority: ageOfMajority,
		now:           time.Now,
	}
}

// WithClock fixes the policy's clock. Intended for tests.
func (p *AgeAgencyPolicy) WithClock(now func() time.Time) *AgeAgencyPolicy {
	p.now = now
	return p
}

func (p *AgeAgencyPolicy) IsAnonymous(issuedTo record.Entity, issuingAgency string) bool {
	// Companies are never redacted.
	if issuedTo.IsCompany() {
		return false
	}
	if _, ok := p.authorized[issuingAgency]; !ok {
		return true
	}
	// An individual with no verifiable birthdate stays anonymous.
	if issuedTo.DateOfBirth == nil {
		return true
	}
	return p.age(*issuedTo.DateOfBirth) < p.ageOfMajority
}

func (p *AgeAgencyPolicy) age(dateOfBirth time.Time) int {
	now := p.now()
	years := now.Year() - dateOfBirth.Year()
	anniversary := time.Date(now.Year(), dateOfBirth.Month(), dateOfBirth.Day(), 0, 0, 0, 0, now.Location())
	if now.Before(anniversary) {
		years--
	}
	return years
}
