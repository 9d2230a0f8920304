package transformers

import (
	"strconv"
	"strings"
	"time"
)

// OrDash returns the value, or "-" when the value is empty. The dash is
// the display convention for absent free-text fields.
func OrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseDate parses a source date string, returning nil for anything it
// cannot parse. Bad dates never abort a row.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// ParseCentroid parses a lon/lat pair. A coordinate of exactly 0 is
// treated the same as a missing coordinate, matching the upstream feeds'
// use of 0 as a null marker.
func ParseCentroid(longitude, latitude string) []float64 {
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(longitude), 64)
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latitude), 64)
	if lonErr != nil || latErr != nil {
		return nil
	}
	if lon == 0 || lat == 0 {
		return nil
	}
	return []float64{lon, lat}
}

// StripActAcronym removes a trailing parenthesized acronym from an act or
// regulation name, e.g. "Environmental Management Act (EMA)" becomes
// "Environmental Management Act".
func StripActAcronym(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasSuffix(name, ")") {
		return name
	}
	open := strings.LastIndex(name, "(")
	if open < 0 {
		return name
	}
	inner := name[open+1 : len(name)-1]
	if inner == "" || strings.ToUpper(inner) != inner {
		return name
	}
	return strings.TrimSpace(name[:open])
}
