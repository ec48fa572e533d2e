// Package filter compiles optional search criteria into a predicate tree over
// drivers. The tree is storage-agnostic: the in-memory store evaluates it with
// Match, the database adapters translate it into their own query language.
package filter

import (
	"strings"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

// Field is a searchable driver attribute.
type Field string

const (
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldTaxID         Field = "tax_id"
	FieldLicenseNumber Field = "license_number"
	FieldPhone         Field = "phone"
	FieldCity          Field = "city"
	FieldState         Field = "state"
)

// Value returns the attribute f of d.
func (f Field) Value(d *domain.Driver) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldEmail:
		return d.Email
	case FieldTaxID:
		return d.TaxID
	case FieldLicenseNumber:
		return d.LicenseNumber
	case FieldPhone:
		return d.Phone
	case FieldCity:
		return d.City
	case FieldState:
		return d.State
	}
	return ""
}

// Predicate is a boolean condition over a driver.
type Predicate interface {
	Match(d *domain.Driver) bool
}

// All matches every driver.
type All struct{}

func (All) Match(*domain.Driver) bool { return true }

// And matches when every child matches. An empty And matches everything.
type And []Predicate

func (a And) Match(d *domain.Driver) bool {
	for _, p := range a {
		if !p.Match(d) {
			return false
		}
	}
	return true
}

// Or matches when at least one child matches. An empty Or matches nothing.
type Or []Predicate

func (o Or) Match(d *domain.Driver) bool {
	for _, p := range o {
		if p.Match(d) {
			return true
		}
	}
	return false
}

// Contains is a case-insensitive substring test. Value is stored lower-cased.
type Contains struct {
	Field Field
	Value string
}

func (c Contains) Match(d *domain.Driver) bool {
	return strings.Contains(strings.ToLower(c.Field.Value(d)), c.Value)
}

// Equals is a case-insensitive equality test. Value is stored lower-cased.
type Equals struct {
	Field Field
	Value string
}

func (e Equals) Match(d *domain.Driver) bool {
	return strings.ToLower(e.Field.Value(d)) == e.Value
}

// AnyVehicle matches drivers operating at least one of the listed types.
type AnyVehicle []domain.VehicleType

func (a AnyVehicle) Match(d *domain.Driver) bool {
	for _, v := range a {
		if d.HasVehicle(v) {
			return true
		}
	}
	return false
}

// AllOf conjoins ps, dropping All children. It returns All when nothing is left
// and the single child when only one remains.
func AllOf(ps ...Predicate) Predicate {
	kept := make(And, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		if _, ok := p.(All); ok {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return All{}
	case 1:
		return kept[0]
	}
	return kept
}

// AnyOf disjoins ps. Any All child makes the whole disjunction All.
func AnyOf(ps ...Predicate) Predicate {
	kept := make(Or, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}
		if _, ok := p.(All); ok {
			return All{}
		}
		kept = append(kept, p)
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return kept
}

// IsAll reports whether p places no restriction at all.
func IsAll(p Predicate) bool {
	if p == nil {
		return true
	}
	switch v := p.(type) {
	case All:
		return true
	case And:
		for _, c := range v {
			if !IsAll(c) {
				return false
			}
		}
		return true
	}
	return false
}
