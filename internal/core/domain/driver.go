package domain

import (
	"strings"
	"time"
)

// VehicleType is a kind of vehicle a driver is licensed to operate.
type VehicleType string

const (
	VehicleCar        VehicleType = "CAR"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleTruck      VehicleType = "TRUCK"
)

// vehicleOrder is the canonical ordering used when a vehicle set is stored or rendered.
var vehicleOrder = []VehicleType{VehicleCar, VehicleMotorcycle, VehicleTruck}

// ParseVehicleType accepts any letter case and reports whether s names a known type.
func ParseVehicleType(s string) (VehicleType, bool) {
	v := VehicleType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range vehicleOrder {
		if v == known {
			return v, true
		}
	}
	return "", false
}

// Valid reports whether v is one of the known vehicle types.
func (v VehicleType) Valid() bool {
	for _, known := range vehicleOrder {
		if v == known {
			return true
		}
	}
	return false
}

// NormalizeVehicleTypes drops duplicates and returns the set in canonical order.
// Unknown values are discarded; callers validate before normalizing.
func NormalizeVehicleTypes(in []VehicleType) []VehicleType {
	seen := make(map[VehicleType]struct{}, len(in))
	for _, v := range in {
		if p, ok := ParseVehicleType(string(v)); ok {
			seen[p] = struct{}{}
		}
	}
	out := make([]VehicleType, 0, len(seen))
	for _, v := range vehicleOrder {
		if _, ok := seen[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// UniqueField names a driver attribute that must be unique across the directory.
type UniqueField string

const (
	FieldEmail         UniqueField = "email"
	FieldTaxID         UniqueField = "taxId"
	FieldLicenseNumber UniqueField = "licenseNumber"
)

// UniqueFields lists the unique fields in the order they are checked.
var UniqueFields = []UniqueField{FieldEmail, FieldTaxID, FieldLicenseNumber}

// Driver is the directory's aggregate root.
type Driver struct {
	ID            string        `json:"id" bson:"_id"`
	Name          string        `json:"name" bson:"name"`
	Email         string        `json:"email" bson:"email"`
	Phone         string        `json:"phone" bson:"phone"`
	TaxID         string        `json:"tax_id" bson:"tax_id"`
	LicenseNumber string        `json:"license_number" bson:"license_number"`
	City          string        `json:"city" bson:"city"`
	State         string        `json:"state" bson:"state"`
	Available     bool          `json:"available" bson:"available"`
	VehicleTypes  []VehicleType `json:"vehicle_types" bson:"vehicle_types"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// UniqueValue returns the stored value of the given unique field.
func (d *Driver) UniqueValue(f UniqueField) string {
	switch f {
	case FieldEmail:
		return d.Email
	case FieldTaxID:
		return d.TaxID
	case FieldLicenseNumber:
		return d.LicenseNumber
	}
	return ""
}

// HasVehicle reports whether the driver operates v.
func (d *Driver) HasVehicle(v VehicleType) bool {
	for _, own := range d.VehicleTypes {
		if own == v {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; the vehicle slice is not shared.
func (d *Driver) Clone() *Driver {
	if d == nil {
		return nil
	}
	c := *d
	c.VehicleTypes = append([]VehicleType(nil), d.VehicleTypes...)
	return &c
}

// NormalizeEmail trims and lower-cases an email so that uniqueness is case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeState trims and upper-cases a two-letter state code.
func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeLicenseNumber strips surrounding whitespace from a license number.
func NormalizeLicenseNumber(s string) string {
	return strings.TrimSpace(s)
}
